package apiclient

import (
	"context"
	"fmt"
	"net/http"
)

// BoletaBatchItem targets every student of one classroom in one period.
type BoletaBatchItem struct {
	ClassroomID int64 `json:"salon_id"`
	PeriodID    int64 `json:"periodo_id"`
	SchoolID    int64 `json:"colegio_id"`
}

type BoletaBatchResult struct {
	ClassroomID int64 `json:"salon_id"`
	Count       int   `json:"cantidad"`
}

func (a *Authorized) GenerateBoletas(ctx context.Context, item BoletaBatchItem) (BoletaBatchResult, error) {
	out := BoletaBatchResult{ClassroomID: item.ClassroomID}
	if err := a.do(ctx, http.MethodPost, "/api/boleta/generar", item, &out); err != nil {
		return BoletaBatchResult{}, err
	}
	return out, nil
}

func (a *Authorized) DeleteBoletas(ctx context.Context, item BoletaBatchItem) (BoletaBatchResult, error) {
	path := fmt.Sprintf("/api/boleta/salon/%d/periodo/%d", item.ClassroomID, item.PeriodID)
	out := BoletaBatchResult{ClassroomID: item.ClassroomID}
	if err := a.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return BoletaBatchResult{}, err
	}
	return out, nil
}
