package upstream

import (
	"net/http"
	"strings"
)

// ForwardedHeaders lists the inbound request headers sent upstream.
// Range is kept so clients can resume and split downloads.
var ForwardedHeaders = []string{
	"Range",
}

// ForwardHeaders builds the outbound header set from the inbound one.
// Repeated values are joined with ", ".
func ForwardHeaders(in http.Header) http.Header {
	out := make(http.Header, len(ForwardedHeaders))

	for _, name := range ForwardedHeaders {
		values := in.Values(name)
		if len(values) == 0 {
			continue
		}

		joined := strings.Join(values, ", ")
		if joined == "" {
			continue
		}
		out.Set(name, joined)
	}

	return out
}
