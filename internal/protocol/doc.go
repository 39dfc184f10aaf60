// Package protocol owns the Final Frame wire contract.
//
// Ownership boundary:
// - frame: header/footer geometry, encoder, stream reader and its counters
//
// Payloads are opaque here. The only payload byte the codec looks at is the
// first one, and only when a reader is asked to filter by category.
package protocol
