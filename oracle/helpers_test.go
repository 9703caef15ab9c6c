package oracle

import (
	"net/http"
	"net/http/httptest"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestHTTPClient(handler http.Handler) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			resp := rec.Result()
			if resp.Body == nil {
				resp.Body = http.NoBody
			}
			return resp, nil
		}),
		Timeout: 5 * time.Second,
	}
}
