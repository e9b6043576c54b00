// Package httputil holds small HTTP response-checking helpers used by the
// fetcher.
package httputil

import (
	"fmt"
	"io"
	"net/http"
)

// CheckResponse reports an error if resp's status code isn't 2xx. The error
// attempts to include some content from the server's response for
// diagnostics.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}
	limitBody, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err == nil && len(limitBody) > 0 {
		return fmt.Errorf("unexpected status code: %q for %q (body starts: %q)", resp.Status, resp.Request.URL.Redacted(), limitBody)
	}
	return fmt.Errorf("unexpected status code: %q for %q", resp.Status, resp.Request.URL.Redacted())
}
