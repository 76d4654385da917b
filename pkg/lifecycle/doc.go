// Package lifecycle implements the execution engine that drives a
// request from initialization to disposal: middleware stages in
// declared order, the terminal handler, response or stream writes, and
// error normalization, all guarded by the request's one-way
// cancellation flag.
package lifecycle
