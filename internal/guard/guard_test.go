package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(session.NewMemoryStorage(), session.StoreConfig{})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store
}

func TestProtectRedirectsWithoutSession(t *testing.T) {
	g := New(newStore(t), "sid", "/login")
	constructed := false
	h := g.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		constructed = true
	}))

	for _, setup := range []func(*http.Request){
		func(*http.Request) {},
		func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sid", Value: "unknown"}) },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer unknown") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/boletas", nil)
		setup(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Fatalf("expected redirect to /login, got %q", loc)
		}
	}
	if constructed {
		t.Fatalf("protected handler must not run without a session")
	}
}

func TestProtectPassesSessionThrough(t *testing.T) {
	store := newStore(t)
	sess, err := store.Login(session.User{DocumentNumber: "12345678", Role: session.RoleAdmin, SchoolID: 2}, "tok")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	g := New(store, "sid", "/login")

	var got session.Session
	h := g.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/boletas", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sess.ID})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.ID != sess.ID {
		t.Fatalf("expected session in context, got %+v", got)
	}
}

func TestProtectAfterLogoutRedirects(t *testing.T) {
	store := newStore(t)
	sess, _ := store.Login(session.User{DocumentNumber: "1", Role: session.RoleWorker}, "tok")
	_ = store.Logout(sess.ID)
	g := New(store, "sid", "/login")

	req := httptest.NewRequest(http.MethodGet, "/trabajador/alumnos", nil)
	req.Header.Set("Authorization", "Bearer "+sess.ID)
	rec := httptest.NewRecorder()
	g.Protect(http.NotFoundHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", rec.Code)
	}
}

func TestRequireAPI(t *testing.T) {
	store := newStore(t)
	admin, _ := store.Login(session.User{DocumentNumber: "1", Role: session.RoleAdmin}, "a")
	worker, _ := store.Login(session.User{DocumentNumber: "2", Role: session.RoleWorker}, "b")
	g := New(store, "sid", "/login")
	h := g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), session.RoleAdmin)

	cases := []struct {
		name string
		id   string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"worker", worker.ID, http.StatusForbidden},
		{"admin", admin.ID, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/v1/entities/trabajador/3", nil)
		if tc.id != "" {
			req.AddCookie(&http.Cookie{Name: "sid", Value: tc.id})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}
