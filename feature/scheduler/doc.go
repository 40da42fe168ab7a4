// Package scheduler is the small interval-task registry driven by the
// tracker's run loop. There is no parallelism: due callbacks execute
// inline between polls, and an injected clock keeps the due predicates
// testable without sleeping.
package scheduler
