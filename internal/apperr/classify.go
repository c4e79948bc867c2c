package apperr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/janisto/tms-platform/internal/message"
)

// Driver messages checked in order when no structured reason is available.
var databaseRules = []struct {
	substr string
	kind   Kind
}{
	{"column name", InvalidColumn},
	{"Invalid object name", InvalidTable},
	{"Cannot insert the value NULL", FailedInsert},
}

// Classify maps any error to an Exception. It never panics and falls back to
// InternalError. The stack of the original error is kept as is.
func Classify(err error) *Exception {
	if err == nil {
		return &Exception{Kind: InternalError}
	}

	var exc *Exception
	if errors.As(err, &exc) {
		if exc == nil {
			return &Exception{Kind: InternalError}
		}
		return exc.clone()
	}

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		if dbErr == nil {
			return &Exception{Kind: InternalError, Tag: message.DatabaseError}
		}
		kind, tag := classifyDatabase(dbErr)
		return &Exception{Kind: kind, Tag: tag, cause: err, stack: stackOf(err)}
	}

	return &Exception{Kind: InternalError, cause: err, stack: stackOf(err)}
}

// ClassifyRecovered maps a value recovered from a panic.
func ClassifyRecovered(v any) *Exception {
	switch x := v.(type) {
	case nil:
		return Classify(nil)
	case error:
		return Classify(x)
	default:
		return Classify(fmt.Errorf("%v", x))
	}
}

// IsDatabase reports whether err originates in the repository layer.
func IsDatabase(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr)
}

func classifyDatabase(e *DatabaseError) (Kind, message.Tag) {
	switch e.Reason {
	case ReasonInvalidColumn:
		return InvalidColumn, ""
	case ReasonInvalidTable:
		return InvalidTable, ""
	case ReasonNullInsert:
		return FailedInsert, ""
	}
	var text string
	if e.Err != nil {
		text = e.Err.Error()
	}
	for _, rule := range databaseRules {
		if strings.Contains(text, rule.substr) {
			return rule.kind, ""
		}
	}
	return InternalError, message.DatabaseError
}
