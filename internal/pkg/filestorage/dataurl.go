package filestorage

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data URL")

// DecodeDataURL decodes a base64 data URL such as the PNG produced by a
// canvas signature pad and returns the declared media type with the payload.
func DecodeDataURL(raw string) (string, []byte, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "data:") {
		return "", nil, ErrInvalidDataURL
	}
	header, payload, found := strings.Cut(raw[len("data:"):], ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrInvalidDataURL
	}
	mediaType := strings.TrimSuffix(header, ";base64")
	if mediaType == "" {
		mediaType = "text/plain"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return "", nil, ErrInvalidDataURL
	}
	return mediaType, data, nil
}
