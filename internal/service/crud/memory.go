package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/janisto/tms-platform/internal/apperr"
	"github.com/janisto/tms-platform/internal/repository"
)

// ProcedureFunc answers a stored procedure call on a MemoryStore.
type ProcedureFunc func(params map[string]any) ([]map[string]any, error)

// MemoryStore is an in-memory Store for unit tests. Columns are matched by the
// entity's JSON field names, so fields tagged json:"-" can not be filtered on.
type MemoryStore[T repository.Model] struct {
	mu         sync.RWMutex
	rows       []map[string]any
	nextID     int64
	procedures map[string]ProcedureFunc
}

// NewMemoryStore returns an empty store.
func NewMemoryStore[T repository.Model]() *MemoryStore[T] {
	return &MemoryStore[T]{procedures: make(map[string]ProcedureFunc)}
}

// HandleProcedure registers fn as the stored procedure name.
func (m *MemoryStore[T]) HandleProcedure(name string, fn ProcedureFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procedures[name] = fn
}

func keyColumn[T repository.Model]() string {
	var zero T
	return zero.KeyColumn()
}

func op[T repository.Model](name string) string {
	var zero T
	return zero.TableName() + "." + name
}

func matches(row map[string]any, where repository.Where) bool {
	for col, want := range where {
		got, ok := row[col]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func decode[T any](row map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(row)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func rowID(row map[string]any) int64 {
	switch v := row["id"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func (m *MemoryStore[T]) selectRows(where repository.Where, opts repository.FindOptions) []map[string]any {
	var out []map[string]any
	for _, row := range m.rows {
		if matches(row, where) && rowID(row) > opts.AfterID {
			out = append(out, row)
		}
	}
	if strings.EqualFold(opts.Order, "id DESC") {
		slices.Reverse(out)
	}
	if opts.Offset > 0 {
		out = out[min(opts.Offset, len(out)):]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func (m *MemoryStore[T]) FindAll(ctx context.Context, where repository.Where, opts repository.FindOptions) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.NewDatabaseError(op[T]("findAll"), apperr.ReasonUnknown, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0)
	for _, row := range m.selectRows(where, opts) {
		v, err := decode[T](row)
		if err != nil {
			return nil, apperr.NewDatabaseError(op[T]("findAll"), apperr.ReasonUnknown, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *MemoryStore[T]) first(ctx context.Context, where repository.Where) (*T, error) {
	rows, err := m.FindAll(ctx, where, repository.FindOptions{Limit: 1})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (m *MemoryStore[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	return m.first(ctx, repository.Where{"id": id})
}

func (m *MemoryStore[T]) FindByPk(ctx context.Context, sid string) (*T, error) {
	return m.first(ctx, repository.Where{keyColumn[T](): sid})
}

func (m *MemoryStore[T]) FindOne(ctx context.Context, where repository.Where) (*T, error) {
	return m.first(ctx, where)
}

func (m *MemoryStore[T]) FindByWhere(ctx context.Context, where repository.Where, opts repository.FindOptions) (repository.Match[T], error) {
	rows, err := m.FindAll(ctx, where, opts)
	if err != nil {
		return repository.Match[T]{}, err
	}
	return repository.NewMatch(rows), nil
}

func (m *MemoryStore[T]) Create(ctx context.Context, values map[string]any) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.NewDatabaseError(op[T]("create"), apperr.ReasonUnknown, err)
	}
	m.mu.Lock()
	row := make(map[string]any, len(values)+2)
	for k, v := range values {
		row[k] = v
	}
	key := keyColumn[T]()
	if sid, _ := row[key].(string); sid == "" {
		row[key] = uuid.NewString()
	}
	m.nextID++
	row["id"] = m.nextID
	if _, ok := row["created_by"]; !ok {
		row["created_by"] = repository.ActorFromContext(ctx)
	}
	m.rows = append(m.rows, row)
	m.mu.Unlock()

	v, err := decode[T](row)
	if err != nil {
		return nil, apperr.NewDatabaseError(op[T]("create"), apperr.ReasonInvalidColumn, err)
	}
	return &v, nil
}

func (m *MemoryStore[T]) Update(ctx context.Context, id int64, values map[string]any) (int64, error) {
	return m.UpdateByWhere(ctx, repository.Where{"id": id}, values)
}

func (m *MemoryStore[T]) UpdateByWhere(ctx context.Context, where repository.Where, values map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, apperr.NewDatabaseError(op[T]("updateByWhere"), apperr.ReasonUnknown, repository.ErrEmptyPredicate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if !matches(row, where) {
			continue
		}
		for k, v := range values {
			row[k] = v
		}
		row["modified_by"] = repository.ActorFromContext(ctx)
		n++
	}
	return n, nil
}

func (m *MemoryStore[T]) Delete(ctx context.Context, id int64) (int64, error) {
	return m.DeleteByWhere(ctx, repository.Where{"id": id})
}

func (m *MemoryStore[T]) DeleteByWhere(_ context.Context, where repository.Where) (int64, error) {
	if len(where) == 0 {
		return 0, apperr.NewDatabaseError(op[T]("deleteByWhere"), apperr.ReasonUnknown, repository.ErrEmptyPredicate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.rows)
	m.rows = slices.DeleteFunc(m.rows, func(row map[string]any) bool { return matches(row, where) })
	return int64(before - len(m.rows)), nil
}

func (m *MemoryStore[T]) Count(_ context.Context, where repository.Where) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.selectRows(where, repository.FindOptions{}))), nil
}

func (m *MemoryStore[T]) StoredProcedure(_ context.Context, name string, params map[string]any) ([]map[string]any, error) {
	m.mu.RLock()
	fn, ok := m.procedures[name]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NewDatabaseError(op[T]("storedProcedure"), apperr.ReasonUnknown,
			errors.New("could not find stored procedure "+name))
	}
	return fn(params)
}
