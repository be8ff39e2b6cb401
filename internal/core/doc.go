// Package core holds the session-scoped dataset workflow: upload, lookup,
// edit, compare and clear.
//
// It is independent of any transport. The web server and tests drive it the
// same way, always passing the Session a call applies to.
//
// # Sessions and the registry
//
// A [Session] owns a [Registry] of loaded datasets keyed by upload file name,
// an optional user label and a scratch directory. Uploading a name that is
// already loaded replaces that entry in place. Every successful upload or
// edit rewrites the scratch copy "<user>_<file>" so a session's files never
// collide with another's. Logout empties the registry and recreates the
// scratch directory.
//
// # Concurrency
//
// Service methods lock the session they act on, so one session handles one
// call at a time. Parsing is bounded server-wide by an [UploadLimiter].
// Idle sessions are evicted by [Service.StartSessionSweeper].
//
// # Error Handling
//
// Operations return sentinel errors ([ErrNotFound], [ErrEmptySelection],
// [ErrInvalidValue], [ErrTooManyUploads]) or a per-file [*ParseError].
// [MapError] turns any of them into a [UserMessage] with a support code:
//
//   - FILE001-FILE005: upload size, format and encoding
//   - DS001-DS002: missing datasets and empty selections
//   - VAL001-VAL004: edits and chart options
//   - UPL002-UPL005: parse limiter, cancellation and timeouts
//   - SES001: login required
package core
