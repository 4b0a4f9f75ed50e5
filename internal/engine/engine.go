// Package engine defines the boundary to the external 3D engine. The
// engine is opaque, stateful and crash-prone; everything behind Adapter
// is treated as a collaborator that may fail in the documented ways and
// in no other.
package engine

import (
	"context"
	"fmt"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

// Adapter performs one import/export round-trip against the host
// engine. The adapter resets the engine's scene state before each
// conversion and must leak nothing between unrelated requests.
type Adapter interface {
	Convert(ctx context.Context, inputPath, outputPath string, source, target entities.Format) error
}

// FailureKind enumerates the engine failures the orchestrator
// classifies. Raw engine errors never cross this boundary untyped.
type FailureKind string

const (
	FailUnsupportedFormat FailureKind = "unsupported_format"
	FailCorruptInput      FailureKind = "corrupt_input"
	FailMissingAnimation  FailureKind = "missing_animation"
	FailAddonMissing      FailureKind = "addon_missing"
	FailInternal          FailureKind = "internal"
)

// Error is a classified engine failure.
type Error struct {
	Kind    FailureKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s: %s", e.Kind, e.Message)
}

func NewError(kind FailureKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}
