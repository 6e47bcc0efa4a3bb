package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/apiclient"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/audit"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/filter"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/guard"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/notify"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/validate"
)

const maxEntityBody = 1 << 20

var errBadBody = errors.New("invalid request body")

// entityRoute binds one API resource to the console. Every record carries a
// colegio_id; writes are pinned to the operator's school.
type entityRoute struct {
	// adminOnly hides the entity from workers entirely. Writes always
	// require the admin role.
	adminOnly bool

	list   func(ctx context.Context, a *apiclient.Authorized, schoolID int64, q string) (any, error)
	get    func(ctx context.Context, a *apiclient.Authorized, id int64) (any, error)
	create func(ctx context.Context, a *apiclient.Authorized, schoolID int64, body io.Reader) (any, error)
	update func(ctx context.Context, a *apiclient.Authorized, schoolID, id int64, body io.Reader) (any, error)
	delete func(ctx context.Context, a *apiclient.Authorized, id int64) error
}

func resourceRoute[T filter.Searchable](adminOnly bool, res func(*apiclient.Authorized) *apiclient.Resource[T], setSchool func(*T, int64)) entityRoute {
	decode := func(schoolID int64, body io.Reader) (T, error) {
		var item T
		if err := json.NewDecoder(io.LimitReader(body, maxEntityBody)).Decode(&item); err != nil {
			return item, errBadBody
		}
		setSchool(&item, schoolID)
		if err := validate.Struct(item); err != nil {
			return item, err
		}
		return item, nil
	}

	return entityRoute{
		adminOnly: adminOnly,
		list: func(ctx context.Context, a *apiclient.Authorized, schoolID int64, q string) (any, error) {
			items, err := res(a).ListBySchool(ctx, schoolID)
			if err != nil {
				return nil, err
			}
			return filter.Filter(items, q), nil
		},
		get: func(ctx context.Context, a *apiclient.Authorized, id int64) (any, error) {
			return res(a).Get(ctx, id)
		},
		create: func(ctx context.Context, a *apiclient.Authorized, schoolID int64, body io.Reader) (any, error) {
			item, err := decode(schoolID, body)
			if err != nil {
				return nil, err
			}
			return res(a).Create(ctx, item)
		},
		update: func(ctx context.Context, a *apiclient.Authorized, schoolID, id int64, body io.Reader) (any, error) {
			item, err := decode(schoolID, body)
			if err != nil {
				return nil, err
			}
			return res(a).Update(ctx, id, item)
		},
		delete: func(ctx context.Context, a *apiclient.Authorized, id int64) error {
			return res(a).Delete(ctx, id)
		},
	}
}

var entityRoutes = map[string]entityRoute{
	"periodo": resourceRoute(true, (*apiclient.Authorized).Periods, func(p *apiclient.Period, id int64) { p.SchoolID = id }),
	"boleta":  resourceRoute(false, (*apiclient.Authorized).Boletas, func(b *apiclient.Boleta, id int64) { b.SchoolID = id }),
	"tarjeta": resourceRoute(true, (*apiclient.Authorized).Cards, func(c *apiclient.Card, id int64) { c.SchoolID = id }),
	"apoderado": resourceRoute(true, (*apiclient.Authorized).Guardians, func(g *apiclient.Guardian, id int64) {
		g.SchoolID = id
	}),
	"trabajador": resourceRoute(true, (*apiclient.Authorized).Workers, func(wk *apiclient.Worker, id int64) {
		wk.SchoolID = id
	}),
	"salon": resourceRoute(true, (*apiclient.Authorized).Classrooms, func(c *apiclient.Classroom, id int64) {
		c.SchoolID = id
	}),
	"alumno": resourceRoute(false, (*apiclient.Authorized).Students, func(s *apiclient.Student, id int64) {
		s.SchoolID = id
	}),
}

func registerEntityHandlers(mux *http.ServeMux, g *guard.Guard, deps Deps) {
	mux.Handle("/v1/entities/", g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if deps.API == nil {
			writeError(w, http.StatusServiceUnavailable, "api client unavailable")
			return
		}
		sess, _ := session.FromContext(r.Context())

		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/entities/"), "/")
		name, rawID, hasID := strings.Cut(rest, "/")
		route, ok := entityRoutes[name]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown entity")
			return
		}
		isAdmin := sess.User.Role == session.RoleAdmin
		if route.adminOnly && !isAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		var id int64
		if hasID {
			n, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid id")
				return
			}
			id = n
		}

		if r.Method != http.MethodGet && !isAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		api := deps.API.As(sess.Token)
		ctx := r.Context()
		target := name
		if hasID {
			target = name + "/" + rawID
		}

		switch {
		case r.Method == http.MethodGet && !hasID:
			items, err := route.list(ctx, api, sess.User.SchoolID, r.URL.Query().Get("q"))
			if err != nil {
				failUpstream(w, r, deps, sess, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": items})
		case r.Method == http.MethodGet:
			item, err := route.get(ctx, api, id)
			if err != nil {
				failUpstream(w, r, deps, sess, err)
				return
			}
			writeJSON(w, http.StatusOK, item)
		case r.Method == http.MethodPost && !hasID:
			created, err := route.create(ctx, api, sess.User.SchoolID, r.Body)
			if err != nil {
				auditReq(deps.Audit, r, actorEvent(sess, name+".create", target, audit.OutcomeFailure, err.Error()))
				failUpstream(w, r, deps, sess, err)
				return
			}
			auditReq(deps.Audit, r, actorEvent(sess, name+".create", target, audit.OutcomeSuccess, ""))
			writeJSON(w, http.StatusCreated, map[string]any{"item": created, "notice": notify.Success("Record created.")})
		case r.Method == http.MethodPut && hasID:
			updated, err := route.update(ctx, api, sess.User.SchoolID, id, r.Body)
			if err != nil {
				auditReq(deps.Audit, r, actorEvent(sess, name+".update", target, audit.OutcomeFailure, err.Error()))
				failUpstream(w, r, deps, sess, err)
				return
			}
			auditReq(deps.Audit, r, actorEvent(sess, name+".update", target, audit.OutcomeSuccess, ""))
			writeJSON(w, http.StatusOK, map[string]any{"item": updated, "notice": notify.Success("Record updated.")})
		case r.Method == http.MethodDelete && hasID:
			if err := route.delete(ctx, api, id); err != nil {
				auditReq(deps.Audit, r, actorEvent(sess, name+".delete", target, audit.OutcomeFailure, err.Error()))
				failUpstream(w, r, deps, sess, err)
				return
			}
			auditReq(deps.Audit, r, actorEvent(sess, name+".delete", target, audit.OutcomeSuccess, ""))
			writeJSON(w, http.StatusOK, map[string]any{"notice": notify.Success("Record deleted.")})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})))
}

// failUpstream reports err to the caller. When the API no longer accepts the
// session's token the console session is dropped as well, so the next page
// load lands on the login screen.
func failUpstream(w http.ResponseWriter, r *http.Request, deps Deps, sess session.Session, err error) {
	if errors.Is(err, errBadBody) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if apiclient.KindOf(err) == apiclient.KindUnauthorized && deps.Sessions != nil {
		if lerr := deps.Sessions.Logout(sess.ID); lerr != nil && !errors.Is(lerr, session.ErrNotFound) {
			deps.Logger.Warn("drop rejected session failed", "sid", sess.ID, "error", lerr)
		}
		clearSessionCookie(w, deps)
	}
	deps.Logger.Warn("api call failed",
		"rid", requestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"kind", apiclient.KindOf(err),
		"error", err,
	)
	writeFailure(w, err)
}
