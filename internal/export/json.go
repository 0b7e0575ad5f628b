package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/netspec/internal/sweep"
)

// WriteJSON writes the dataset as indented JSON.
func WriteJSON(w io.Writer, ds *sweep.Dataset) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ds)
}
