package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes chain state as indented JSON.
//
// HTML escaping is off: RPC URLs routinely carry query strings, and
// "&" must come out as written so the output can be fed back into
// `overrides set --file`.
type JSONFormatter struct{}

// Format writes data followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
