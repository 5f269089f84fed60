package kickauth

import "fmt"

// UpstreamError is returned when Kick responds to a request with a non-2xx status: the
// status code and response body are carried as-is so that callers can relay them
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("got response %d from Kick: %s", e.StatusCode, string(e.Body))
}
