package entities

import "time"

// Outcome is the successful result of a conversion.
type Outcome struct {
	Data        []byte
	ContentType string
	CacheHit    bool
}

// ConversionEvent is the audit record published after every terminal
// request outcome, successful or not.
type ConversionEvent struct {
	ClientID     string        `json:"client_id"`
	SourceFormat string        `json:"source_format"`
	TargetFormat string        `json:"target_format"`
	SizeBytes    int64         `json:"size_bytes"`
	DetectedMIME string        `json:"detected_mime,omitempty"`
	Status       string        `json:"status"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	CacheHit     bool          `json:"cache_hit"`
	Duration     time.Duration `json:"duration_ns"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
