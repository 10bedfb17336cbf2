// internal/capture/dataurl.go
package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var ErrNotImage = errors.New("file is not an image")

// FromFile reads an image from disk and returns it as a data URI, the opaque
// reference the session works with.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return FromBytes(data)
}

// FromBytes sniffs the content type and rejects anything that is not image/*.
func FromBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotImage
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
