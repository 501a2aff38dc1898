package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	gohttp "net/http"
	"strings"
)

// RemoteError is returned for every failed catalog API call. Status is the
// HTTP status code, or 0 when the request never got a response.
type RemoteError struct {
	Status  int
	Message string
	Method  string
	Path    string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("remote: %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("remote: %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a RemoteError carrying 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == gohttp.StatusNotFound
}

// StatusOf returns the HTTP status of a RemoteError in err's chain, or 0.
func StatusOf(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// errorMessage extracts a human message from an error response body. The
// backend answers with {"message": ...}, {"error": ...} or {"detail": ...}
// depending on the route; anything else is used as plain text.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, m := range []string{body.Message, body.Error, body.Detail} {
			if m != "" {
				return m
			}
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return gohttp.StatusText(status)
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
