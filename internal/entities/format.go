package entities

import (
	"path/filepath"
	"strings"
)

// Format is a supported 3D/motion file format.
type Format string

const (
	FormatFBX  Format = "fbx"
	FormatOBJ  Format = "obj"
	FormatGLTF Format = "gltf"
	FormatGLB  Format = "glb"
	FormatVRM  Format = "vrm"
	FormatBVH  Format = "bvh"
)

// mimeTypes lists the MIME types accepted for each format; the first
// entry is the canonical content type used in responses.
var mimeTypes = map[Format][]string{
	FormatFBX:  {"application/octet-stream", "application/x-autodesk-fbx"},
	FormatOBJ:  {"application/x-tgif", "text/plain", "application/octet-stream"},
	FormatGLTF: {"model/gltf+json", "application/json"},
	FormatGLB:  {"model/gltf-binary"},
	FormatVRM:  {"application/octet-stream", "model/gltf-binary", "model/vrml"},
	FormatBVH:  {"application/octet-stream"},
}

func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	_, ok := mimeTypes[f]
	return f, ok
}

// FormatFromFilename derives the format from the filename extension.
// The second return value is the raw extension without the leading dot.
func FormatFromFilename(name string) (Format, string, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", "", false
	}
	f, ok := ParseFormat(ext)
	return f, strings.ToLower(ext), ok
}

func (f Format) String() string { return string(f) }

// ContentType returns the canonical MIME type for the format.
func (f Format) ContentType() string {
	if types, ok := mimeTypes[f]; ok {
		return types[0]
	}
	return "application/octet-stream"
}

// AcceptsMIME reports whether a detected MIME type is plausible for the
// format. Detection is advisory: 3D formats routinely sniff as generic
// octet-stream or text, so unknown types are accepted.
func (f Format) AcceptsMIME(mime string) bool {
	types, ok := mimeTypes[f]
	if !ok {
		return false
	}
	base := mime
	if i := strings.Index(base, ";"); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	for _, t := range types {
		if t == base {
			return true
		}
	}
	// Sniffers cannot reliably identify mesh formats; only reject when
	// the detected type is a known-foreign family.
	return !strings.HasPrefix(base, "image/") && !strings.HasPrefix(base, "video/") && !strings.HasPrefix(base, "audio/")
}

// Formats returns all supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatFBX, FormatOBJ, FormatGLTF, FormatGLB, FormatVRM, FormatBVH}
}
