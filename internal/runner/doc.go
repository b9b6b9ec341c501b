// Package runner launches external tool processes and exposes their output.
//
// Processes are spawned directly with an argument vector, never through a
// shell, so arguments are passed verbatim without re-parsing. Each invocation
// gets its own process; cancellation of the supplied context kills it.
package runner
