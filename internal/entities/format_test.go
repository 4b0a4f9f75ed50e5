package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, ok := ParseFormat(f.String())
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}

	got, ok := ParseFormat(" GLB ")
	assert.True(t, ok)
	assert.Equal(t, FormatGLB, got)

	_, ok = ParseFormat("stl")
	assert.False(t, ok)

	_, ok = ParseFormat("")
	assert.False(t, ok)
}

func TestFormatFromFilename(t *testing.T) {
	f, ext, ok := FormatFromFilename("dancer.BVH")
	assert.True(t, ok)
	assert.Equal(t, FormatBVH, f)
	assert.Equal(t, "bvh", ext)

	_, ext, ok = FormatFromFilename("model.xyz")
	assert.False(t, ok)
	assert.Equal(t, "xyz", ext)

	_, ext, ok = FormatFromFilename("noextension")
	assert.False(t, ok)
	assert.Empty(t, ext)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "model/gltf-binary", FormatGLB.ContentType())
	assert.Equal(t, "model/gltf+json", FormatGLTF.ContentType())
	assert.Equal(t, "application/octet-stream", FormatFBX.ContentType())
	assert.Equal(t, "application/octet-stream", Format("nope").ContentType())
}

func TestAcceptsMIME(t *testing.T) {
	assert.True(t, FormatFBX.AcceptsMIME("application/octet-stream"))
	assert.True(t, FormatGLTF.AcceptsMIME("application/json; charset=utf-8"))

	// Sniffers misreport mesh formats all the time; only clearly
	// foreign families are rejected.
	assert.True(t, FormatOBJ.AcceptsMIME("text/plain; charset=utf-8"))
	assert.True(t, FormatFBX.AcceptsMIME("application/zip"))
	assert.False(t, FormatFBX.AcceptsMIME("image/png"))
	assert.False(t, FormatVRM.AcceptsMIME("video/mp4"))
}

func TestConversionErrorHTTPStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:      400,
		KindPayloadTooLarge: 413,
		KindRateLimited:     429,
		KindTimeout:         504,
		KindDomainFailure:   500,
	}
	for kind, want := range cases {
		err := &ConversionError{Kind: kind, Message: "x"}
		assert.Equal(t, want, err.HTTPStatus(), string(kind))
	}
}
