// Package batch implements the staged upload workflow.
//
// A batch moves through: preview (metadata extraction + artist resolution) ->
// token-held payload in the [Store] -> confirm/commit. The payload is consumed
// exactly once; confirming a token twice fails with [shared.ErrBatchExpired].
// Unconfirmed payloads expire after a TTL and their staging directories are
// removed by the sweep.
package batch
