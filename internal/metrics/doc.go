// Package metrics collects request outcome and upstream statistics for the
// edge filter.
//
// Events are sent on a buffered channel and processed by a single
// goroutine, so the request path never waits on metrics:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.Event{
//		Type:       metrics.EventUpstreamCompleted,
//		Upstream:   "userstorage.mega.co.nz",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 206,
//	})
//
//	snapshot := collector.Snapshot()
//
// Pending events are drained when the context passed to Start is cancelled.
package metrics
