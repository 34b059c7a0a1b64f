// Package upstream performs the single outbound request of the proxy path.
// It decides which inbound headers may leave the edge and reports failed
// fetches as *FetchError.
package upstream
