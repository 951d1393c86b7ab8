package types

// APIMessage is a normalized analytics message as it is shipped inside a
// batch payload. Shaping (library metadata, distinct_id naming, timestamp
// defaulting) happens before the message enters the queue; the queue and
// transport treat it as opaque.
type APIMessage map[string]any
