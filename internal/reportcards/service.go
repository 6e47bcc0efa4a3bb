// Package reportcards creates and deletes the boletas of several
// classrooms for one period, one classroom at a time.
package reportcards

import (
	"context"
	"fmt"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/batch"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/validate"
)

type BoletaAPI interface {
	GenerateBoletas(ctx context.Context, item apiclient.BoletaBatchItem) (apiclient.BoletaBatchResult, error)
	DeleteBoletas(ctx context.Context, item apiclient.BoletaBatchItem) (apiclient.BoletaBatchResult, error)
}

// FromClient adapts the API client so each batch runs with the caller's token.
func FromClient(c *apiclient.Client) func(token string) BoletaAPI {
	return func(token string) BoletaAPI { return c.As(token) }
}

type Request struct {
	ClassroomIDs []int64 `json:"classroom_ids" validate:"required,min=1,dive,gt=0"`
	PeriodID     int64   `json:"period_id" validate:"required,gt=0"`
	SchoolID     int64   `json:"school_id" validate:"required,gt=0"`
}

type Summary struct {
	Processed int                           `json:"processed"`
	Boletas   int                           `json:"boletas"`
	Message   string                        `json:"message"`
	Results   []apiclient.BoletaBatchResult `json:"results"`
}

type Service struct {
	api    func(token string) BoletaAPI
	create *batch.Runner
	delete *batch.Runner
}

func NewService(api func(token string) BoletaAPI, cfg batch.RunnerConfig) *Service {
	createCfg, deleteCfg := cfg, cfg
	createCfg.Operation = "boletas.create"
	deleteCfg.Operation = "boletas.delete"
	return &Service{
		api:    api,
		create: batch.NewRunner(createCfg),
		delete: batch.NewRunner(deleteCfg),
	}
}

func (s *Service) Create(ctx context.Context, token string, req Request) (Summary, error) {
	api := s.api(token)
	return s.run(ctx, s.create, req, api.GenerateBoletas)
}

func (s *Service) Delete(ctx context.Context, token string, req Request) (Summary, error) {
	api := s.api(token)
	return s.run(ctx, s.delete, req, api.DeleteBoletas)
}

func (s *Service) run(ctx context.Context, r *batch.Runner, req Request, op batch.Op[apiclient.BoletaBatchItem, apiclient.BoletaBatchResult]) (Summary, error) {
	if err := validate.Struct(req); err != nil {
		return Summary{}, err
	}

	items := make([]apiclient.BoletaBatchItem, 0, len(req.ClassroomIDs))
	for _, id := range req.ClassroomIDs {
		items = append(items, apiclient.BoletaBatchItem{ClassroomID: id, PeriodID: req.PeriodID, SchoolID: req.SchoolID})
	}

	results, err := batch.Run(ctx, r, items, op)
	if err != nil {
		return Summary{}, err
	}

	total := 0
	for _, res := range results {
		total += res.Count
	}
	return Summary{
		Processed: len(results),
		Boletas:   total,
		Message:   fmt.Sprintf("%d processed successfully", len(results)),
		Results:   results,
	}, nil
}
