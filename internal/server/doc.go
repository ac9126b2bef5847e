// Package server exposes the summary service over HTTP.
//
// Routes:
//
//	POST /v1/summaries          allocate, assemble and call the model
//	POST /v1/summaries/analyze  dry run; same body, no model call
//	GET  /healthz               liveness
//	GET  /metrics               Prometheus exposition
//
// Request bodies carry either per-file candidates, a raw unified diff that
// is split per file, or both. Responses are the JSON form of
// summary.Response.
package server
