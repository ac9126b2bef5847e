// Package logging builds the process-wide structured logger.
//
// Logs go to stderr by default so that stdout stays reserved for reports.
package logging
