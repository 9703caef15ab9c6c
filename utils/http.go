// utils/http.go
package utils

import (
	"io"
	"net/http"
	"time"
)

// NewHTTPClient returns a client for outbound oracle calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// DrainAndClose lets the transport reuse the connection.
func DrainAndClose(rc io.ReadCloser) error {
	if rc == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}
