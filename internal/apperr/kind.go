package apperr

import (
	"net/http"

	"github.com/janisto/tms-platform/internal/message"
)

// Kind is the closed set of failure categories the API reports.
type Kind uint8

const (
	InternalError Kind = iota
	UserNotFound
	UserAlreadyExists
	InvalidCredentials
	InvalidToken
	TokenExpired
	TokenNotFound
	TokenRequired
	DataNotFound
	DataAlreadyExists
	InvalidColumn
	InvalidTable
	FailedInsert
	InvalidQuery
	Forbidden
	BadRequest

	kindCount
)

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := range kindCount {
		out = append(out, k)
	}
	return out
}

type kindInfo struct {
	name   string
	status int
	tag    message.Tag
}

// info is the single matcher for kind attributes. Adding a kind without a case
// here makes Kinds() return an entry whose status is 0, which the tests reject.
func (k Kind) info() kindInfo {
	switch k {
	case InternalError:
		return kindInfo{"InternalError", http.StatusInternalServerError, message.InternalServerError}
	case UserNotFound:
		return kindInfo{"UserNotFound", http.StatusNotFound, message.UserNotFound}
	case UserAlreadyExists:
		return kindInfo{"UserAlreadyExists", http.StatusConflict, message.UserAlreadyExists}
	case InvalidCredentials:
		return kindInfo{"InvalidCredentials", http.StatusUnauthorized, message.InvalidCredentials}
	case InvalidToken:
		return kindInfo{"InvalidToken", http.StatusUnauthorized, message.InvalidToken}
	case TokenExpired:
		return kindInfo{"TokenExpired", http.StatusUnauthorized, message.TokenExpired}
	case TokenNotFound:
		return kindInfo{"TokenNotFound", http.StatusNotFound, message.TokenNotFound}
	case TokenRequired:
		return kindInfo{"TokenRequired", http.StatusUnauthorized, message.TokenRequired}
	case DataNotFound:
		return kindInfo{"DataNotFound", http.StatusNotFound, message.DataNotFound}
	case DataAlreadyExists:
		return kindInfo{"DataAlreadyExists", http.StatusConflict, message.DataAlreadyExists}
	case InvalidColumn:
		return kindInfo{"InvalidColumn", http.StatusInternalServerError, message.InvalidColumn}
	case InvalidTable:
		return kindInfo{"InvalidTable", http.StatusInternalServerError, message.InvalidTable}
	case FailedInsert:
		return kindInfo{"FailedInsert", http.StatusInternalServerError, message.InsertFailed}
	case InvalidQuery:
		return kindInfo{"InvalidQuery", http.StatusInternalServerError, message.InvalidQuery}
	case Forbidden:
		return kindInfo{"Forbidden", http.StatusForbidden, message.ForbiddenAccess}
	case BadRequest:
		return kindInfo{"BadRequest", http.StatusBadRequest, message.PropertyRequired}
	default:
		return kindInfo{"Unknown", 0, ""}
	}
}

func (k Kind) String() string { return k.info().name }

// HTTPStatus is the fixed status code returned for the kind.
func (k Kind) HTTPStatus() int { return k.info().status }

// Tag is the default catalog tag of the kind.
func (k Kind) Tag() message.Tag { return k.info().tag }

// Tags lists every tag the taxonomy can produce, including DATABASE_ERROR.
func Tags() []message.Tag {
	tags := make([]message.Tag, 0, kindCount+1)
	for _, k := range Kinds() {
		tags = append(tags, k.Tag())
	}
	return append(tags, message.DatabaseError)
}
