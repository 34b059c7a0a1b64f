// Origin is a stand-in for the userstorage download host, used to try the
// edge filter locally. Every path serves the same deterministic blob and
// honours Range requests. Each request's headers are logged so you can see
// exactly what the filter forwards.
//
// Usage:
//
//	go run origin.go -port 8081 -size 1048576
//
// Then point the filter at it:
//
//	FILTER_ALLOWED_HOST=localhost:8081 go run ./cmd serve
//	curl -H 'Range: bytes=0-99' http://localhost:8080/http://localhost:8081/dl/file
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	size := flag.Int("size", 1<<20, "size of the served blob in bytes")
	flag.Parse()

	blob := make([]byte, *size)
	for i := range blob {
		blob[i] = byte('a' + i%26)
	}
	modTime := time.Now()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s headers=[%s]", r.Method, r.URL.Path, formatHeaders(r.Header))

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("X-Origin", "fake-userstorage")
		http.ServeContent(w, r, "blob", modTime, bytes.NewReader(blob))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Fake origin listening on %s serving %d bytes", addr, *size)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func formatHeaders(h http.Header) string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(h[name], ", "))
	}
	return strings.Join(parts, "; ")
}
