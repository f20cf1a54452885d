// Package dedupe remembers which item id an Idempotency-Key produced so a
// retried create inside the configured window returns the original id.
package dedupe
