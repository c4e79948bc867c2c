package repository

import (
	"errors"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/janisto/tms-platform/internal/apperr"
)

// SQL Server error numbers.
const (
	mssqlInvalidColumn = 207
	mssqlInvalidObject = 208
	mssqlNullInsert    = 515
)

// translate wraps a driver error as *apperr.DatabaseError, reading the
// structured cause when the driver reports one.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *apperr.DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr
	}
	return apperr.NewDatabaseError(op, reasonOf(err), err)
}

func reasonOf(err error) apperr.Reason {
	var me mssql.Error
	if errors.As(err, &me) {
		switch me.Number {
		case mssqlInvalidColumn:
			return apperr.ReasonInvalidColumn
		case mssqlInvalidObject:
			return apperr.ReasonInvalidTable
		case mssqlNullInsert:
			return apperr.ReasonNullInsert
		}
		return apperr.ReasonUnknown
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		if se.Code() == sqlite3.SQLITE_CONSTRAINT_NOTNULL {
			return apperr.ReasonNullInsert
		}
		// Schema errors share SQLITE_ERROR; only the text tells them apart.
		msg := se.Error()
		switch {
		case strings.Contains(msg, "NOT NULL constraint failed"):
			return apperr.ReasonNullInsert
		case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column named"):
			return apperr.ReasonInvalidColumn
		case strings.Contains(msg, "no such table"):
			return apperr.ReasonInvalidTable
		}
	}
	return apperr.ReasonUnknown
}
