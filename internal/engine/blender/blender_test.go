package blender

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/engine"
)

func TestClassifyResult_OK(t *testing.T) {
	out := "Blender 4.3.0\nRead blend: ...\nMODELHUB_RESULT OK\nBlender quit\n"
	assert.NoError(t, classifyResult(out))
}

func TestClassifyResult_NoMarker(t *testing.T) {
	assert.NoError(t, classifyResult("Segmentation fault (core dumped)\n"))
}

func TestClassifyResult_ErrorCodes(t *testing.T) {
	cases := []struct {
		line string
		kind engine.FailureKind
		msg  string
	}{
		{"MODELHUB_RESULT ERR UNSUPPORTED_FORMAT Unsupported input format: xyz", engine.FailUnsupportedFormat, "Unsupported input format: xyz"},
		{"MODELHUB_RESULT ERR CORRUPT_INPUT Import resulted in no objects", engine.FailCorruptInput, "Import resulted in no objects"},
		{"MODELHUB_RESULT ERR MISSING_ANIMATION No animation data found to export to BVH", engine.FailMissingAnimation, "No animation data found to export to BVH"},
		{"MODELHUB_RESULT ERR ADDON_MISSING VRM addon is not registered", engine.FailAddonMissing, "VRM addon is not registered"},
		{"MODELHUB_RESULT ERR SOMETHING_ELSE boom", engine.FailInternal, "boom"},
	}

	for _, tc := range cases {
		err := classifyResult("noise before\n" + tc.line + "\nnoise after\n")
		require.Error(t, err, tc.line)

		var engErr *engine.Error
		require.True(t, errors.As(err, &engErr), tc.line)
		assert.Equal(t, tc.kind, engErr.Kind)
		assert.Equal(t, tc.msg, engErr.Message)
	}
}

func TestClassifyResult_LastMarkerWins(t *testing.T) {
	out := "MODELHUB_RESULT ERR CORRUPT_INPUT first try\nMODELHUB_RESULT OK\n"
	assert.NoError(t, classifyResult(out))
}
