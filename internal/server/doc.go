// Package server provides the HTTP surface of the triage service: a JSON
// API under /api/v1, an HTML digest page at /, Kubernetes-style health
// probes, and a dedicated Prometheus metrics server.
//
// Endpoints:
//   - GET  /                          HTML digest page
//   - GET  /api/v1/digest             triage records, filterable by category and min_score
//   - GET  /api/v1/messages/{fingerprint}  one triage record
//   - POST /api/v1/refresh            trigger a pipeline run
//   - GET  /healthz                   liveness probe
//   - GET  /readyz                    readiness probe
//
// The metrics server runs on its own port so operational data is never
// exposed on the application listener.
package server
