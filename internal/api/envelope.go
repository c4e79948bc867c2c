package api

// Envelope is the success response wrapper. Data is always serialized, as null
// when the handler has nothing to return.
type Envelope[T any] struct {
	RequestID  string `json:"request_id"  doc:"Correlation id of the request"      example:"5f0c6d1e-2b7a-4a51-9d0e-1c9b7a6f2e10"`
	StatusCode string `json:"status_code" doc:"Business status code"               example:"0000"`
	Message    string `json:"message"     doc:"Localized summary"                  example:"Success"`
	Datetime   string `json:"datetime"    doc:"Response time in the API timezone"  example:"2024-01-15 17:30:00.000"`
	Data       *T     `json:"data"        doc:"Response payload"`
}

// ErrorEnvelope is the failure response wrapper. It has no data field, so a
// response can never carry both a payload and an error.
type ErrorEnvelope struct {
	RequestID    string `json:"request_id"             doc:"Correlation id of the request"`
	StatusCode   string `json:"status_code"            doc:"Business status code"              example:"0404"`
	Message      string `json:"message"                doc:"Localized summary"                 example:"Data not found"`
	Datetime     string `json:"datetime"               doc:"Response time in the API timezone" example:"2024-01-15 17:30:00.000"`
	ErrorMessage string `json:"error_message"          doc:"Short error description"           example:"Not Found"`
	ErrorDetail  string `json:"error_detail,omitempty" doc:"Stack trace, development only"`
	ErrorCode    string `json:"error_code"             doc:"Error reference code"              example:"A1B2C3D4E5F6"`
}

// NewEnvelope constructs a success envelope holding a copy of data.
func NewEnvelope[T any](requestID, statusCode, msg, datetime string, data T) Envelope[T] {
	d := data
	return Envelope[T]{
		RequestID:  requestID,
		StatusCode: statusCode,
		Message:    msg,
		Datetime:   datetime,
		Data:       &d,
	}
}
