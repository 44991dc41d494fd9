package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/copperline/triage/internal/audit"
)

// Sink writes JSON-encoded audit records to stdout, one per line.
type Sink struct {
	enc *json.Encoder
}

// New creates a stdout sink with optional pretty-printed JSON.
func New(pretty bool) *Sink {
	return newTo(os.Stdout, pretty)
}

func newTo(w io.Writer, pretty bool) *Sink {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Sink{enc: enc}
}

func (s *Sink) Write(_ context.Context, rec audit.Record) error {
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("stdout sink: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	return nil
}
