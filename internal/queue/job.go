package queue

// Audit events travel through a redis stream so the request path never
// blocks on postgres. Events carry metadata only, never artifact bytes.
const (
	payloadField = "payload"
	attemptField = "attempt"
)
