// Package summary turns a set of per-file diffs into a model request and a
// reportable result.
//
// A [Service] runs one request synchronously: it estimates the system
// instructions, lets a [budget.Allocator] pick the files that fit, assembles
// a two-message [Context] (system then user), and either stops there
// ([Service.Analyze]) or sends that exact context to the model
// ([Service.Summarize]). Both paths return a [Response] carrying the context
// and a [TokenAnalysis] of what was included and excluded.
//
// The instruction text is loaded once, at service construction, and never
// changes afterwards. A missing instructions file is not fatal: it is
// reported as a [*ConfigurationError] and the service runs with empty
// instructions.
//
// Model failures are wrapped in [*ModelInvocationError], which carries the
// full context that was sent. Nothing in this package retries.
package summary
