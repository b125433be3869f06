package response

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"dextrack/internal/apperr"
)

const HeaderXRequestID = "X-Request-Id"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Fields    []apperr.FieldError `json:"fields,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

func Data(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

func Message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Message: msg})
}

// Err writes err as a failure envelope. Store and internal failures are
// logged with their cause and reported to the client without detail.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	if ae == nil {
		ae = &apperr.Error{Code: apperr.CodeInternal, Message: "unknown error"}
	}
	status := apperr.HTTPStatus(ae.Code)

	body := &ErrorBody{
		Code:      string(ae.Code),
		Message:   ae.Message,
		Fields:    ae.Fields,
		RequestID: w.Header().Get(HeaderXRequestID),
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(ae.Err).
			Str("code", string(ae.Code)).
			Str("detail", ae.Message).
			Msg("request failed")
		body.Message = "internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Error: body})
}
