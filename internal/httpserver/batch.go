package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/audit"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/batch"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/cards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/guard"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/notify"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/reportcards"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

const maxImportUpload = 10 << 20

func registerBatchHandlers(mux *http.ServeMux, g *guard.Guard, deps Deps) {
	mux.Handle("/v1/boletas/batch", g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if deps.ReportCards == nil {
			writeError(w, http.StatusServiceUnavailable, "report card service unavailable")
			return
		}
		sess, _ := session.FromContext(r.Context())

		var run func() (reportcards.Summary, error)
		var action string
		var req reportcards.Request
		switch r.Method {
		case http.MethodPost:
			action = "boletas.create"
			run = func() (reportcards.Summary, error) { return deps.ReportCards.Create(r.Context(), sess.Token, req) }
		case http.MethodDelete:
			action = "boletas.delete"
			run = func() (reportcards.Summary, error) { return deps.ReportCards.Delete(r.Context(), sess.Token, req) }
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.SchoolID = sess.User.SchoolID
		target := fmt.Sprintf("periodo/%d", req.PeriodID)

		extendWriteDeadline(w, deps, len(req.ClassroomIDs))
		summary, err := run()
		if err != nil {
			auditReq(deps.Audit, r, actorEvent(sess, action, target, audit.OutcomeFailure, batchDetail(req.ClassroomIDs, err)))
			failBatch(w, r, deps, sess, err)
			return
		}
		auditReq(deps.Audit, r, actorEvent(sess, action, target, audit.OutcomeSuccess, summary.Message))
		writeJSON(w, http.StatusOK, map[string]any{
			"summary": summary,
			"notice":  notify.Success(summary.Message),
		})
	}), session.RoleAdmin))

	mux.Handle("/v1/tarjetas/import", g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Cards == nil {
			writeError(w, http.StatusServiceUnavailable, "card import unavailable")
			return
		}
		sess, _ := session.FromContext(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "an .xlsx file is required in the file field")
			return
		}
		defer file.Close()

		rows, err := cards.ParseWorkbook(file)
		if err == nil && len(rows) == 0 {
			err = errors.New("the workbook has no card rows")
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  err.Error(),
				"notice": notify.Failure(err.Error()),
			})
			return
		}

		extendWriteDeadline(w, deps, len(rows))
		summary, err := deps.Cards.Import(r.Context(), sess.Token, sess.User.SchoolID, rows)
		if err != nil {
			auditReq(deps.Audit, r, actorEvent(sess, "tarjetas.import", "", audit.OutcomeFailure, err.Error()))
			failBatch(w, r, deps, sess, err)
			return
		}
		auditReq(deps.Audit, r, actorEvent(sess, "tarjetas.import", "", audit.OutcomeSuccess, summary.Message))
		writeJSON(w, http.StatusOK, map[string]any{
			"summary": summary,
			"notice":  notify.Success(summary.Message),
		})
	}), session.RoleAdmin))
}

// extendWriteDeadline pushes the connection write deadline past the worst
// case duration of a batch of n items, so the summary reaches the operator
// even when the batch outlasts the server's WriteTimeout.
func extendWriteDeadline(w http.ResponseWriter, deps Deps, n int) {
	budget := time.Duration(n) * (deps.BatchDelay + deps.APITimeout)
	if budget <= 0 {
		return
	}
	err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(budget + deps.APITimeout))
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		deps.Logger.Warn("extend batch write deadline", "items", n, "err", err)
	}
}

// failBatch reports a stopped batch. The operator is told how many items
// were applied before the failure since nothing is rolled back.
func failBatch(w http.ResponseWriter, r *http.Request, deps Deps, sess session.Session, err error) {
	var itemErr *batch.ItemError
	if errors.As(err, &itemErr) {
		w.Header().Set("X-Batch-Processed", fmt.Sprint(itemErr.Completed()))
	}
	failUpstream(w, r, deps, sess, err)
}

func batchDetail(ids []int64, err error) string {
	var itemErr *batch.ItemError
	if errors.As(err, &itemErr) && itemErr.Index < len(ids) {
		return fmt.Sprintf("stopped at salon %d after %d processed: %v", ids[itemErr.Index], itemErr.Completed(), err)
	}
	return err.Error()
}
