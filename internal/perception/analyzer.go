// Package perception is the AI gateway: it sends a plant photo to a vision
// model and returns the model's raw text. Interpreting that text is the
// normalize package's job; nothing here parses JSON.
package perception

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Analyzer defines the interface for vision model providers.
// Both methods take the image as standard base64 and return raw model text.
type Analyzer interface {
	Identify(ctx context.Context, imageBase64 string) (string, error)
	AnalyzeHealth(ctx context.Context, imageBase64, userContext string) (string, error)
}

// DecodeImage decodes base64 image data, tolerating a data URI prefix, and
// sniffs its MIME type.
func DecodeImage(imageBase64 string) ([]byte, string, error) {
	s := strings.TrimSpace(imageBase64)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, "", fmt.Errorf("image data is empty")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return data, DetectMIME(data), nil
}

// DetectMIME returns the image MIME type of data, defaulting to image/jpeg
// when the bytes are not a recognised image format.
func DetectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// DataURI renders data as a base64 data URI.
func DataURI(data []byte) string {
	return "data:" + DetectMIME(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
