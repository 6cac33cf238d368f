package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/WelcomerTeam/Gamenight/gamejson"
)

var ErrUnauthorized = errors.New("improper token was passed")

// RestError contains the error structure that is returned by discord.
type RestError struct {
	Message      *ErrorMessage
	Method       string
	Path         string
	ResponseBody []byte
	StatusCode   int
}

// ErrorMessage represents a basic error message.
type ErrorMessage struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Code    int32           `json:"code"`
}

// NewRestError decodes an error response. It returns nil when the body is not
// an error payload.
func NewRestError(req *http.Request, resp *http.Response, body []byte) *RestError {
	var errorMessage ErrorMessage

	if err := gamejson.Unmarshal(body, &errorMessage); err != nil {
		return nil
	}

	if errorMessage.Code == 0 && errorMessage.Message == "" {
		return nil
	}

	return &RestError{
		Message:      &errorMessage,
		Method:       req.Method,
		Path:         req.URL.Path,
		ResponseBody: body,
		StatusCode:   resp.StatusCode,
	}
}

func (r *RestError) Error() string {
	return fmt.Sprintf("%s %s: %d %s (code %d)", r.Method, r.Path, r.StatusCode, r.Message.Message, r.Message.Code)
}
