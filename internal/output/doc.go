// Package output formats summary responses for display or machine
// consumption.
//
// Two formats are supported:
//   - text: human-readable terminal output (default)
//   - json: the full response, including the rendered context and token analysis
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*summary.Response]. [WriteReport]
// handles destination selection.
package output
