package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Resource is the CRUD service for one entity of the API, rooted at
// /api/<name>.
type Resource[T any] struct {
	a    *Authorized
	name string
}

func newResource[T any](a *Authorized, name string) *Resource[T] {
	return &Resource[T]{a: a, name: name}
}

func (r *Resource[T]) path(suffix string) string {
	return "/api/" + r.name + suffix
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	return r.list(ctx, r.path(""))
}

func (r *Resource[T]) ListBySchool(ctx context.Context, schoolID int64) ([]T, error) {
	return r.list(ctx, r.path("/colegio/"+strconv.FormatInt(schoolID, 10)))
}

func (r *Resource[T]) list(ctx context.Context, path string) ([]T, error) {
	var raw json.RawMessage
	if err := r.a.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.a.do(ctx, http.MethodGet, r.path("/"+strconv.FormatInt(id, 10)), nil, &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var out T
	err := r.a.do(ctx, http.MethodPost, r.path(""), item, &out)
	return out, err
}

func (r *Resource[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	var out T
	err := r.a.do(ctx, http.MethodPut, r.path("/"+strconv.FormatInt(id, 10)), item, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.a.do(ctx, http.MethodDelete, r.path("/"+strconv.FormatInt(id, 10)), nil, nil)
}

// decodeList accepts both a bare JSON array and the {"data": [...]}
// envelope some endpoints use.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '{' {
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode list envelope: %w", err)
		}
		if env.Data == nil {
			return []T{}, nil
		}
		return env.Data, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

func (a *Authorized) Periods() *Resource[Period]       { return newResource[Period](a, "periodo") }
func (a *Authorized) Boletas() *Resource[Boleta]       { return newResource[Boleta](a, "boleta") }
func (a *Authorized) Cards() *Resource[Card]           { return newResource[Card](a, "tarjeta") }
func (a *Authorized) Guardians() *Resource[Guardian]   { return newResource[Guardian](a, "apoderado") }
func (a *Authorized) Workers() *Resource[Worker]       { return newResource[Worker](a, "trabajador") }
func (a *Authorized) Classrooms() *Resource[Classroom] { return newResource[Classroom](a, "salon") }
func (a *Authorized) Students() *Resource[Student]     { return newResource[Student](a, "alumno") }
