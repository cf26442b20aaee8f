// Package retry wraps fallible operations with a classification-driven retry
// policy.
//
// Errors are tagged Permanent (never retried), RateLimited (fixed longer
// delay), or Recoverable (exponential backoff); unknown errors lean toward
// Recoverable so transient faults don't discard work. A budget that runs out
// surfaces as ErrRetriesExhausted, distinct from a single-attempt
// PermanentError, so callers can tell "gave up after N attempts" from "this
// will never succeed".
package retry
