package images

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
)

// DefaultMaxUploadBytes is the largest cover upload accepted.
const DefaultMaxUploadBytes = 5 << 20

// CheckUpload rejects covers that are empty, larger than maxBytes, or not
// an image. It returns the detected MIME type.
func CheckUpload(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", domainerrors.Validation("cover image is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", domainerrors.Validationf("cover image is too large (%s, limit %s)",
			formatSize(int64(len(data))), formatSize(maxBytes)).
			WithDetails(map[string]string{"cover": "too large"})
	}
	return DetectImage(data)
}

// DetectImage sniffs the payload and requires an image/* type.
func DetectImage(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", domainerrors.Validationf("cover must be an image, got %s", mt.String()).
			WithDetails(map[string]string{"cover": "not an image"})
	}
	return mt.String(), nil
}

func formatSize(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}
