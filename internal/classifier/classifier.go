package classifier

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
)

// Request is one classification call: the file bytes, their MIME type and
// the composed instruction text.
type Request struct {
	Path     string
	MIMEType string
	Data     []byte
	Prompt   string
}

// Classifier classifies a file. Implementations apply their own timeout and
// retry policy.
type Classifier interface {
	Classify(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, req Request) (*Result, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

var knownMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// DetectMIMEType guesses the MIME type from the file extension and falls
// back to application/octet-stream.
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if known, ok := knownMIMETypes[ext]; ok {
		return known
	}
	if guessed := mime.TypeByExtension(ext); guessed != "" {
		if base, _, err := mime.ParseMediaType(guessed); err == nil {
			return base
		}
		return guessed
	}
	return "application/octet-stream"
}
