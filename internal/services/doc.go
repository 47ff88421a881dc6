// Package services implements the business logic layer between the tabular
// loaders and engines on one side and the HTTP, websocket and CLI surfaces on
// the other.
//
// # Services
//
//   - MetricsService: loads every configured source through the shared
//     cache, runs the aggregation and intervention engines, keeps the last
//     known-good aggregate per source and publishes the fused metrics.
//   - HealthService: reports overall status, per-source load state and
//     build information.
//
// # Refresh Cycle
//
// Refresh loads all sources concurrently. A source that fails keeps its
// previous aggregate and reports the error in its Result; the others are
// unaffected. After each refresh the unified metrics are recomputed and
// pushed to the Broadcaster as a "metrics_updated" message:
//
//	svc := services.NewMetricsService(cfg, cache, rows, weekly, aggregator,
//	    scorer, notifier, hub, logger)
//	go svc.Run(ctx, 5*time.Minute)
//
// # Results
//
// Every read returns a domain.Result. Data is nil until the owning source has
// loaded once; Loading is set while a load is in flight; Error carries the
// last load failure, or a configuration error for sources without a URI.
//
// # Testing
//
// Collaborators are small interfaces (RowSource, WeeklySource, Broadcaster)
// so tests substitute fakes:
//
//	sources := newFakeSources()
//	svc := NewMetricsService(cfg, cache.New(logger, nil), sources, sources, ...)
package services
