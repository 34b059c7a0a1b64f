package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/edge-filter/internal/circuitbreaker"
	"github.com/angeloszaimis/edge-filter/internal/filter"
	"github.com/angeloszaimis/edge-filter/internal/metrics"
	"github.com/angeloszaimis/edge-filter/internal/upstream"
)

const textContentType = "text/plain;charset=UTF-8"

// invalidUpstream is the metrics key for targets that are not absolute URLs.
const invalidUpstream = "invalid"

// FilterHandler answers every request on the public listener from the
// filter's decision, proxying allow-listed targets through the fetcher.
type FilterHandler struct {
	logger           *slog.Logger
	filter           *filter.Filter
	fetcher          upstream.Fetcher
	metricsCollector *metrics.Collector
}

// NewFilterHandler wires a filter to the fetcher used for proxied requests.
// collector may be nil.
func NewFilterHandler(logger *slog.Logger, f *filter.Filter, fetcher upstream.Fetcher, collector *metrics.Collector) *FilterHandler {
	return &FilterHandler{
		logger:           logger,
		filter:           f,
		fetcher:          fetcher,
		metricsCollector: collector,
	}
}

// ServeHTTP decides on the escaped path so percent-encoding reaches the
// upstream unchanged.
func (h *FilterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()
	decision := h.filter.Decide(r.Method, path)

	log := h.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("method", r.Method),
		slog.String("path", path),
		slog.String("outcome", string(decision.Outcome)))

	if decision.Outcome != filter.OutcomeProxy {
		log.Info("Answered request", slog.Int("status", decision.Status))
		writeText(w, decision.Status, decision.Body)
		h.recordOutcome(decision.Outcome, decision.Status)
		return
	}

	h.proxy(w, r, decision.Target, log)
}

func (h *FilterHandler) proxy(w http.ResponseWriter, r *http.Request, target string, log *slog.Logger) {
	host := upstream.Host(target)
	if host == "" {
		host = invalidUpstream
	}
	start := time.Now()

	log.Debug("Forwarding to upstream", slog.String("target", target))

	resp, err := h.fetcher.Fetch(r.Context(), r.Method, target, upstream.ForwardHeaders(r.Header))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, circuitbreaker.ErrOpen) {
			status = http.StatusServiceUnavailable
		}

		log.Warn("Upstream request failed",
			slog.String("target", target),
			slog.Int("status", status),
			slog.Any("err", err))

		writeText(w, status, strconv.Itoa(status))
		h.recordOutcome(filter.OutcomeProxy, status)
		h.metricsCollector.Emit(metrics.Event{
			Type:     metrics.EventUpstreamFailed,
			Upstream: host,
		})
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		w.Header()[name] = values
	}
	w.WriteHeader(resp.StatusCode)

	var written int64
	if r.Method != http.MethodHead {
		written, err = io.Copy(w, resp.Body)
		if err != nil {
			log.Warn("Proxied body copy interrupted",
				slog.Int64("bytes", written),
				slog.Any("err", err))
		}
	}

	duration := time.Since(start)
	log.Info("Proxied request",
		slog.String("target", target),
		slog.Int("status", resp.StatusCode),
		slog.Int64("bytes", written),
		slog.Duration("duration", duration))

	h.recordOutcome(filter.OutcomeProxy, resp.StatusCode)
	h.metricsCollector.Emit(metrics.Event{
		Type:       metrics.EventUpstreamCompleted,
		Upstream:   host,
		Duration:   duration,
		StatusCode: resp.StatusCode,
	})
}

func (h *FilterHandler) recordOutcome(outcome filter.Outcome, status int) {
	h.metricsCollector.Emit(metrics.Event{
		Type:       metrics.EventRequestHandled,
		Outcome:    string(outcome),
		StatusCode: status,
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", textContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	io.WriteString(w, body)
}
