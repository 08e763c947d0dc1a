package httpserver

import (
	"encoding/json"
	"io"
)

// decodeJSON decodes a request body into dest, rejecting unknown fields so
// payment parameter typos fail loudly instead of silently charging the
// wrong amount. The reader is closed after decoding.
func decodeJSON(r io.ReadCloser, dest any) error {
	defer r.Close()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}
