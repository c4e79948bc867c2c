// Package crud provides the generic service layer shared by the domain
// services. It adds typed projections on top of a Store and never swallows
// store errors.
package crud

import (
	"context"

	"github.com/janisto/tms-platform/internal/repository"
)

// Store is the data access contract of a Service. *repository.Repository
// implements it; MemoryStore implements it for tests.
type Store[T repository.Model] interface {
	FindAll(ctx context.Context, where repository.Where, opts repository.FindOptions) ([]T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	FindByPk(ctx context.Context, sid string) (*T, error)
	FindOne(ctx context.Context, where repository.Where) (*T, error)
	FindByWhere(ctx context.Context, where repository.Where, opts repository.FindOptions) (repository.Match[T], error)
	Create(ctx context.Context, values map[string]any) (*T, error)
	Update(ctx context.Context, id int64, values map[string]any) (int64, error)
	UpdateByWhere(ctx context.Context, where repository.Where, values map[string]any) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteByWhere(ctx context.Context, where repository.Where) (int64, error)
	Count(ctx context.Context, where repository.Where) (int64, error)
	StoredProcedure(ctx context.Context, name string, params map[string]any) ([]map[string]any, error)
}

// Service exposes the store operations of one entity.
type Service[T repository.Model] struct {
	store Store[T]
}

// New returns a service over store.
func New[T repository.Model](store Store[T]) *Service[T] {
	return &Service[T]{store: store}
}

// FindAll returns the rows matching where, ordered by id unless opts says otherwise.
func (s *Service[T]) FindAll(ctx context.Context, where repository.Where, opts repository.FindOptions) ([]T, error) {
	return s.store.FindAll(ctx, where, opts)
}

// FindByID returns the row with the numeric id, nil when there is none.
func (s *Service[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	return s.store.FindByID(ctx, id)
}

// FindByPk returns the row with the sid key, nil when there is none.
func (s *Service[T]) FindByPk(ctx context.Context, sid string) (*T, error) {
	return s.store.FindByPk(ctx, sid)
}

// FindOne returns the first row matching where, nil when there is none.
func (s *Service[T]) FindOne(ctx context.Context, where repository.Where) (*T, error) {
	return s.store.FindOne(ctx, where)
}

// FindByWhere returns the matching rows as a Match.
func (s *Service[T]) FindByWhere(ctx context.Context, where repository.Where, opts repository.FindOptions) (repository.Match[T], error) {
	return s.store.FindByWhere(ctx, where, opts)
}

// Create inserts values and returns the persisted row.
func (s *Service[T]) Create(ctx context.Context, values map[string]any) (*T, error) {
	return s.store.Create(ctx, values)
}

// Update changes the row with the numeric id and returns the affected count.
func (s *Service[T]) Update(ctx context.Context, id int64, values map[string]any) (int64, error) {
	return s.store.Update(ctx, id, values)
}

// UpdateByWhere changes every row matching where.
func (s *Service[T]) UpdateByWhere(ctx context.Context, where repository.Where, values map[string]any) (int64, error) {
	return s.store.UpdateByWhere(ctx, where, values)
}

// Delete removes the row with the numeric id.
func (s *Service[T]) Delete(ctx context.Context, id int64) (int64, error) {
	return s.store.Delete(ctx, id)
}

// DeleteByWhere removes every row matching where. An empty predicate is rejected.
func (s *Service[T]) DeleteByWhere(ctx context.Context, where repository.Where) (int64, error) {
	return s.store.DeleteByWhere(ctx, where)
}

// Count returns the number of rows matching where.
func (s *Service[T]) Count(ctx context.Context, where repository.Where) (int64, error) {
	return s.store.Count(ctx, where)
}

// StoredProcedure runs the named procedure and returns its rows.
func (s *Service[T]) StoredProcedure(ctx context.Context, name string, params map[string]any) ([]map[string]any, error) {
	return s.store.StoredProcedure(ctx, name, params)
}
