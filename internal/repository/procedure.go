package repository

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/janisto/tms-platform/internal/apperr"
)

var procedurePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// compileProcedure renders "name @k = :k, ..." with sorted keys and compiles the
// named parameters into the driver's bind variables.
func compileProcedure(driver, name string, params map[string]any) (string, []any, error) {
	if !procedurePattern.MatchString(name) {
		return "", nil, fmt.Errorf("%w: procedure %q", ErrInvalidIdentifier, name)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		if !identifierPattern.MatchString(k) {
			return "", nil, fmt.Errorf("%w: parameter %q", ErrInvalidIdentifier, k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(name)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString("@" + k + " = :" + k)
	}

	query, args, err := sqlx.Named(b.String(), params)
	if err != nil {
		return "", nil, err
	}
	if driver == "sqlserver" {
		return "EXEC " + sqlx.Rebind(sqlx.AT, query), args, nil
	}
	return sqlx.Rebind(sqlx.BindType(driver), query), args, nil
}

// StoredProcedure executes a stored procedure and returns its result rows.
func (r *Repository[T]) StoredProcedure(ctx context.Context, name string, params map[string]any) ([]map[string]any, error) {
	op := r.table + ".storedProcedure"
	query, args, err := compileProcedure(r.driver, name, params)
	if err != nil {
		return nil, apperr.NewDatabaseError(op, apperr.ReasonUnknown, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rows := make([]map[string]any, 0)
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, translate(op, err)
	}
	return rows, nil
}
