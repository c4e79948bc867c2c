// Package repository implements a generic GORM repository over one database
// grouping. Every store failure leaves this package as *apperr.DatabaseError.
package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/janisto/tms-platform/internal/apperr"
)

// DefaultTimeout bounds every repository call.
const DefaultTimeout = 10 * time.Second

// Model is implemented by the entities in internal/entity.
type Model interface {
	TableName() string
	KeyColumn() string
}

// Where is an equality predicate keyed by column name.
type Where map[string]any

// FindOptions shape a list query. The zero value orders by id ascending.
type FindOptions struct {
	Order   string
	Limit   int
	Offset  int
	AfterID int64
}

const (
	columnCreatedBy    = "created_by"
	columnCreatedDate  = "created_date"
	columnModifiedBy   = "modified_by"
	columnModifiedDate = "modified_date"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	orderPattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*( (?i:asc|desc))?$`)

	// ErrEmptyPredicate rejects updates and deletes without a predicate.
	ErrEmptyPredicate = errors.New("empty predicate")
	// ErrInvalidIdentifier rejects column, order and procedure names outside the allow-list.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	timeout time.Duration
	driver  string
}

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDriver records the driver name; stored procedures need it to pick the
// bind style and call syntax.
func WithDriver(driver string) Option {
	return func(o *options) { o.driver = driver }
}

// Repository is a typed view of one table.
type Repository[T Model] struct {
	db      *gorm.DB
	timeout time.Duration
	driver  string
	table   string
	key     string
	columns map[string]bool
}

var schemaCache sync.Map

// New parses T's schema once and returns a repository bound to db.
func New[T Model](db *gorm.DB, opts ...Option) (*Repository[T], error) {
	if db == nil {
		return nil, errors.New("repository: nil database")
	}
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver == "" {
		o.driver = db.Name()
	}
	var zero T
	s, err := schema.Parse(&zero, &schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("repository: parse %s: %w", zero.TableName(), err)
	}
	cols := make(map[string]bool, len(s.DBNames))
	for _, name := range s.DBNames {
		cols[name] = true
	}
	return &Repository[T]{
		db:      db,
		timeout: o.timeout,
		driver:  o.driver,
		table:   zero.TableName(),
		key:     zero.KeyColumn(),
		columns: cols,
	}, nil
}

// Table returns the table name.
func (r *Repository[T]) Table() string { return r.table }

// HasColumn reports whether T maps column.
func (r *Repository[T]) HasColumn(column string) bool { return r.columns[column] }

func (r *Repository[T]) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx).Model(new(T)), cancel
}

func (r *Repository[T]) scoped(q *gorm.DB, where Where) (*gorm.DB, error) {
	if len(where) == 0 {
		return q, nil
	}
	for col := range where {
		if !identifierPattern.MatchString(col) {
			return nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, col)
		}
	}
	return q.Where(map[string]any(where)), nil
}

func (r *Repository[T]) list(ctx context.Context, op string, where Where, opts FindOptions) ([]T, error) {
	q, cancel := r.session(ctx)
	defer cancel()
	q, err := r.scoped(q, where)
	if err != nil {
		return nil, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn, err)
	}
	order := "id ASC"
	if opts.Order != "" {
		if !orderPattern.MatchString(opts.Order) {
			return nil, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn,
				fmt.Errorf("%w: order %q", ErrInvalidIdentifier, opts.Order))
		}
		order = opts.Order
	}
	if opts.AfterID > 0 {
		q = q.Where("id > ?", opts.AfterID)
	}
	q = q.Order(order)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	items := make([]T, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, translate(op, err)
	}
	return items, nil
}

// FindAll returns the matching rows ordered by id unless opts says otherwise.
func (r *Repository[T]) FindAll(ctx context.Context, where Where, opts FindOptions) ([]T, error) {
	return r.list(ctx, r.table+".findAll", where, opts)
}

func (r *Repository[T]) first(ctx context.Context, op string, where Where) (*T, error) {
	items, err := r.list(ctx, op, where, FindOptions{Limit: 1})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// FindByID returns the row with the surrogate id, or nil when there is none.
func (r *Repository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	return r.first(ctx, r.table+".findById", Where{"id": id})
}

// FindByPk returns the row with the string sid, or nil when there is none.
func (r *Repository[T]) FindByPk(ctx context.Context, sid string) (*T, error) {
	return r.first(ctx, r.table+".findByPk", Where{r.key: sid})
}

// FindOne returns the first matching row in id order, or nil.
func (r *Repository[T]) FindOne(ctx context.Context, where Where) (*T, error) {
	return r.first(ctx, r.table+".findOne", where)
}

// FindByWhere returns the matching rows wrapped in a Match, which serializes as
// null, an object or an array depending on the row count.
func (r *Repository[T]) FindByWhere(ctx context.Context, where Where, opts FindOptions) (Match[T], error) {
	items, err := r.list(ctx, r.table+".findByWhere", where, opts)
	if err != nil {
		return Match[T]{}, err
	}
	return NewMatch(items), nil
}

// Count returns the number of matching rows.
func (r *Repository[T]) Count(ctx context.Context, where Where) (int64, error) {
	op := r.table + ".count"
	q, cancel := r.session(ctx)
	defer cancel()
	q, err := r.scoped(q, where)
	if err != nil {
		return 0, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn, err)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, translate(op, err)
	}
	return n, nil
}

// Create inserts only the given columns. The sid and the created stamps are
// filled in when the table has them and values does not. The persisted row is
// read back and returned.
func (r *Repository[T]) Create(ctx context.Context, values map[string]any) (*T, error) {
	op := r.table + ".create"
	row := make(map[string]any, len(values)+3)
	for k, v := range values {
		if !identifierPattern.MatchString(k) {
			return nil, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn,
				fmt.Errorf("%w: column %q", ErrInvalidIdentifier, k))
		}
		row[k] = v
	}
	sid, _ := row[r.key].(string)
	if sid == "" {
		sid = uuid.NewString()
		row[r.key] = sid
	}
	r.stamp(ctx, row, columnCreatedBy, columnCreatedDate)

	q, cancel := r.session(ctx)
	err := q.Create(row).Error
	cancel()
	if err != nil {
		return nil, translate(op, err)
	}
	created, err := r.first(ctx, op, Where{r.key: sid})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, apperr.NewDatabaseError(op, apperr.ReasonUnknown,
			fmt.Errorf("row %s=%s not readable after insert", r.key, sid))
	}
	return created, nil
}

func (r *Repository[T]) stamp(ctx context.Context, row map[string]any, byCol, dateCol string) {
	if _, ok := row[byCol]; !ok && r.columns[byCol] {
		row[byCol] = ActorFromContext(ctx)
	}
	if _, ok := row[dateCol]; !ok && r.columns[dateCol] {
		row[dateCol] = time.Now().UTC()
	}
}

// Update writes values to the row with id and returns the affected row count.
func (r *Repository[T]) Update(ctx context.Context, id int64, values map[string]any) (int64, error) {
	return r.update(ctx, r.table+".update", Where{"id": id}, values)
}

// UpdateByWhere writes values to every matching row.
func (r *Repository[T]) UpdateByWhere(ctx context.Context, where Where, values map[string]any) (int64, error) {
	return r.update(ctx, r.table+".updateByWhere", where, values)
}

func (r *Repository[T]) update(ctx context.Context, op string, where Where, values map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, apperr.NewDatabaseError(op, apperr.ReasonUnknown, ErrEmptyPredicate)
	}
	if len(values) == 0 {
		return 0, nil
	}
	row := make(map[string]any, len(values)+2)
	for k, v := range values {
		if !identifierPattern.MatchString(k) {
			return 0, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn,
				fmt.Errorf("%w: column %q", ErrInvalidIdentifier, k))
		}
		row[k] = v
	}
	r.stamp(ctx, row, columnModifiedBy, columnModifiedDate)

	q, cancel := r.session(ctx)
	defer cancel()
	q, err := r.scoped(q, where)
	if err != nil {
		return 0, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn, err)
	}
	res := q.Updates(row)
	if res.Error != nil {
		return 0, translate(op, res.Error)
	}
	return res.RowsAffected, nil
}

// Delete physically removes the row with id.
func (r *Repository[T]) Delete(ctx context.Context, id int64) (int64, error) {
	return r.delete(ctx, r.table+".delete", Where{"id": id})
}

// DeleteByWhere physically removes every matching row. An empty predicate is
// rejected rather than clearing the table.
func (r *Repository[T]) DeleteByWhere(ctx context.Context, where Where) (int64, error) {
	return r.delete(ctx, r.table+".deleteByWhere", where)
}

func (r *Repository[T]) delete(ctx context.Context, op string, where Where) (int64, error) {
	if len(where) == 0 {
		return 0, apperr.NewDatabaseError(op, apperr.ReasonUnknown, ErrEmptyPredicate)
	}
	q, cancel := r.session(ctx)
	defer cancel()
	q, err := r.scoped(q, where)
	if err != nil {
		return 0, apperr.NewDatabaseError(op, apperr.ReasonInvalidColumn, err)
	}
	res := q.Delete(new(T))
	if res.Error != nil {
		return 0, translate(op, res.Error)
	}
	return res.RowsAffected, nil
}

