// Package logger builds the zap logger shared by the CLI and the fx container.
//
// Output goes to standard error with a console encoder so that command output
// on standard out stays machine readable. The level defaults to warn and is
// read from TRANSFORMATIONS_LOG_LEVEL (debug, info, warn or error).
package logger
