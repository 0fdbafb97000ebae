package conversion

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrorEntity is the entity type name under which failure bodies are
// negotiated.
const ErrorEntity = "Error"

// ErrorBody is the representation of a failed request.
type ErrorBody struct {
	Status  int    `json:"status" yaml:"status" msgpack:"status"`
	Reason  string `json:"reason" yaml:"reason" msgpack:"reason"`
	Message string `json:"message" yaml:"message" msgpack:"message"`
}

// NewErrorBody creates the body reported for err with the given status.
func NewErrorBody(status int, err error) ErrorBody {
	body := ErrorBody{Status: status, Reason: http.StatusText(status)}
	if err != nil {
		body.Message = err.Error()
	}
	return body
}

// Error implements the error interface so that decoded bodies can be
// returned to callers directly.
func (b ErrorBody) Error() string {
	if b.Message == "" {
		return fmt.Sprintf("%d %s", b.Status, b.Reason)
	}
	return fmt.Sprintf("%d %s: %s", b.Status, b.Reason, b.Message)
}

// NewErrorTextConverter creates the text/plain converter for ErrorBody. The
// format is "<status> <reason>", an empty line and the message.
func NewErrorTextConverter() Converter {
	return &textConverter{
		mediaType: MustParseMediaType(MediaTypeTextPlain),
		format: func(v any) (string, error) {
			body, err := asErrorBody(v)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d %s\n\n%s\n", body.Status, body.Reason, body.Message), nil
		},
		parse: parseErrorText,
	}
}

// NewErrorJSONConverter creates the application/json converter for ErrorBody.
func NewErrorJSONConverter() Converter {
	return NewJSONConverter(func(v any) (any, error) { return asErrorBody(v) })
}

func parseErrorText(s string) (any, error) {
	head, message, _ := strings.Cut(s, "\n")
	statusText, reason, _ := strings.Cut(strings.TrimSpace(head), " ")
	status, err := strconv.Atoi(statusText)
	if err != nil {
		return nil, fmt.Errorf("invalid status line %q", head)
	}
	return ErrorBody{
		Status:  status,
		Reason:  reason,
		Message: strings.TrimSpace(message),
	}, nil
}

func asErrorBody(v any) (ErrorBody, error) {
	switch b := v.(type) {
	case ErrorBody:
		return b, nil
	case *ErrorBody:
		return *b, nil
	case map[string]any:
		status, err := cast.ToIntE(b["status"])
		if err != nil {
			return ErrorBody{}, fmt.Errorf("invalid error status: %w", err)
		}
		return ErrorBody{
			Status:  status,
			Reason:  cast.ToString(b["reason"]),
			Message: cast.ToString(b["message"]),
		}, nil
	default:
		return ErrorBody{}, fmt.Errorf("unsupported error value %T", v)
	}
}
