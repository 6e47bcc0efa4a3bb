// Package cards bulk-assigns RFID cards to students from a spreadsheet.
package cards

import (
	"context"
	"fmt"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/batch"
)

type CardCreator interface {
	Create(ctx context.Context, card apiclient.Card) (apiclient.Card, error)
}

func FromClient(c *apiclient.Client) func(token string) CardCreator {
	return func(token string) CardCreator { return c.As(token).Cards() }
}

type Summary struct {
	Imported int              `json:"imported"`
	Message  string           `json:"message"`
	Cards    []apiclient.Card `json:"cards"`
}

type Importer struct {
	api    func(token string) CardCreator
	runner *batch.Runner
}

func NewImporter(api func(token string) CardCreator, cfg batch.RunnerConfig) *Importer {
	cfg.Operation = "cards.import"
	return &Importer{api: api, runner: batch.NewRunner(cfg)}
}

// Import creates one card per row, in file order, stopping at the first
// rejected row.
func (im *Importer) Import(ctx context.Context, token string, schoolID int64, rows []Row) (Summary, error) {
	if schoolID <= 0 {
		return Summary{}, fmt.Errorf("school id is required")
	}
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("no card rows to import")
	}

	api := im.api(token)
	created, err := batch.Run(ctx, im.runner, rows, func(ctx context.Context, row Row) (apiclient.Card, error) {
		card, err := api.Create(ctx, apiclient.Card{Code: row.Code, StudentID: row.StudentID, SchoolID: schoolID})
		if err != nil {
			return apiclient.Card{}, fmt.Errorf("row %d (%s): %w", row.Line, row.Code, err)
		}
		return card, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Imported: len(created),
		Message:  fmt.Sprintf("%d processed successfully", len(created)),
		Cards:    created,
	}, nil
}
