package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// ErrAuthExpired signals that the current access token is no longer valid
// and has to be renewed before the next connection attempt.
var ErrAuthExpired = errors.New("authorization expired")

// ErrAuthUnavailable signals that the identity provider cannot be reached.
// No push session can be established until it recovers.
var ErrAuthUnavailable = errors.New("authorization service unavailable")

// HTTPError provides a way to pass more meaningful information regarding
// http errors without breaking interfaces.
type HTTPError struct {
	Err    error
	Status int
	Body   io.ReadCloser
}

func (e HTTPError) Error() string {
	body := ""

	if e.Body != nil {
		if bts, err := io.ReadAll(e.Body); err == nil {
			body = string(bts)
		}
	}

	return fmt.Sprintf("%s, status code: %d, body: %s", e.Err, e.Status, body)
}

// StatusCode extracts the HTTP status code from an error chain. It returns
// zero for errors without an HTTP cause, such as transport failures.
func StatusCode(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}

	return 0
}

// IsUnauthorized reports whether the error represents an HTTP 401 or 403
// response.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)

	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
