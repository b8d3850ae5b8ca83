package upload

import (
	"bytes"
	"fmt"
	"image/gif"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Rejection explains why one file was refused before any network call.
type Rejection struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// extensions maps each accepted MIME type to the filename extensions it may
// legitimately carry. Sniffed content and extension must agree; a PNG named
// .jpg is rejected rather than trusted either way.
var extensions = map[string][]string{
	"image/png":  {".png"},
	"image/jpeg": {".jpg", ".jpeg"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

// Validator checks uploaded images against the configured size bound and
// allow-list. Detection sniffs the actual bytes, never the client-supplied
// Content-Type header.
type Validator struct {
	maxSize int64
	allowed map[string]bool
}

func NewValidator(maxSizeBytes int64, allowedTypes []string) *Validator {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Validator{
		maxSize: maxSizeBytes,
		allowed: allowed,
	}
}

// Validate returns nil when the file is acceptable, or a Rejection naming the
// first failed check.
func (v *Validator) Validate(filename string, data []byte) *Rejection {
	if len(data) == 0 {
		return &Rejection{Filename: filename, Reason: "file is empty"}
	}
	if v.maxSize > 0 && int64(len(data)) > v.maxSize {
		return &Rejection{
			Filename: filename,
			Reason:   fmt.Sprintf("file exceeds the %d byte limit", v.maxSize),
		}
	}

	detected := mimetype.Detect(data)
	mime := detected.String()
	if i := strings.Index(mime, ";"); i > 0 {
		mime = mime[:i]
	}

	if !v.allowed[mime] {
		return &Rejection{
			Filename: filename,
			Reason:   fmt.Sprintf("unsupported file type %s", mime),
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionMatches(mime, ext) {
		return &Rejection{
			Filename: filename,
			Reason:   fmt.Sprintf("extension %q does not match detected type %s", ext, mime),
		}
	}

	if mime == "image/gif" && isAnimatedGIF(data) {
		return &Rejection{Filename: filename, Reason: "animated GIFs are not supported"}
	}

	return nil
}

// DetectedType returns the sniffed MIME type for a validated file.
func (v *Validator) DetectedType(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.Index(mime, ";"); i > 0 {
		return mime[:i]
	}
	return mime
}

func extensionMatches(mime, ext string) bool {
	for _, allowed := range extensions[mime] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// isAnimatedGIF decodes the GIF frame list; more than one frame means
// animation. A GIF that fails to decode at all is treated as animated-unknown
// and rejected upstream of OCR, which cannot use it anyway.
func isAnimatedGIF(data []byte) bool {
	img, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return true
	}
	return len(img.Image) > 1
}
