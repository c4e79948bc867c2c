package crud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/janisto/tms-platform/internal/repository"
)

// Projector maps an entity to its response shape.
type Projector[T, R any] func(T) (R, error)

// Project lifts an infallible mapping. DTOs mark optional fields omitempty so
// unset values are left out of the response.
func Project[T, R any](fn func(T) R) Projector[T, R] {
	return func(v T) (R, error) { return fn(v), nil }
}

// ProjectJSON maps fields by their JSON names. R only needs the fields it keeps.
func ProjectJSON[T, R any]() Projector[T, R] {
	return func(v T) (R, error) {
		var out R
		raw, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("project: %w", err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, fmt.Errorf("project: %w", err)
		}
		return out, nil
	}
}

// FindAllAs lists rows and projects each one.
func FindAllAs[T repository.Model, R any](ctx context.Context, svc *Service[T], where repository.Where, opts repository.FindOptions, p Projector[T, R]) ([]R, error) {
	rows, err := svc.FindAll(ctx, where, opts)
	if err != nil {
		return nil, err
	}
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		r, err := p(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FindByPkAs looks up one row by sid. A missing row projects to nil.
func FindByPkAs[T repository.Model, R any](ctx context.Context, svc *Service[T], sid string, p Projector[T, R]) (*R, error) {
	row, err := svc.FindByPk(ctx, sid)
	if err != nil || row == nil {
		return nil, err
	}
	return projectOne(*row, p)
}

// CreateAs inserts a row and projects the persisted result.
func CreateAs[T repository.Model, R any](ctx context.Context, svc *Service[T], values map[string]any, p Projector[T, R]) (*R, error) {
	row, err := svc.Create(ctx, values)
	if err != nil {
		return nil, err
	}
	return projectOne(*row, p)
}

func projectOne[T, R any](v T, p Projector[T, R]) (*R, error) {
	r, err := p(v)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
