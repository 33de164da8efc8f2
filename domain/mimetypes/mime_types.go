package mimetypes

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
)

// allowed is the set of attachment types the server accepts.
var allowed = map[MIME]struct{}{
	TextPlain:       {},
	ApplicationPDF:  {},
	ApplicationJSON: {},
	ImagePNG:        {},
	ImageJPEG:       {},
	ImageGIF:        {},
	ImageWEBP:       {},
}

// Sniff detects the content type from the payload itself, ignoring any
// client-declared type. Parameters like charset are stripped so the
// result compares cleanly against the allow-list.
func Sniff(data []byte) MIME {
	mt := mimetype.Detect(data)
	if mt == nil {
		return Unknown
	}
	detected, _, _ := strings.Cut(mt.String(), ";")
	return MIME(strings.TrimSpace(detected))
}

// Allowed reports whether detected is an accepted attachment type.
func Allowed(detected MIME) bool {
	_, ok := allowed[detected]
	return ok
}
