// Package http implements the HTTP handlers of the claims metrics API.
//
// Handlers are thin: they read from the metrics service and render its
// Result values with go-chi/render. Source failures are reported inside the
// Result body, so read endpoints answer 200 even while a source is failing;
// only request errors such as an unknown cache key are rendered as RFC 7807
// problems through the shared error handler.
//
// # Routes
//
//	GET    /api/metrics                 fused UnifiedMetrics
//	GET    /api/exposure                open-inventory aggregate
//	GET    /api/decisions               decisions-pending aggregate
//	GET    /api/risk                    CP1 risk aggregate
//	GET    /api/spend                   check-history aggregate
//	GET    /api/loss-development        loss-development aggregate
//	GET    /api/weekly                  weekly report snapshots
//	GET    /api/intervention            retained intervention candidates
//	GET    /api/intervention/alerts     alert payloads
//	GET    /api/sources                 per-source load state
//	POST   /api/refresh                 reload every configured source
//	GET    /api/cache/stats             cache counters
//	DELETE /api/cache                   drop every cached source
//	DELETE /api/cache/{source}          drop one cached source
//	GET    /api/health                  health with per-source state
//	GET    /api/health/live             liveness
//	GET    /api/version                 build information
package http
