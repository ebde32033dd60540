package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Sink durably stores a finished report. The report is handed over
// complete and read-only; sinks never mutate it.
type Sink interface {
	Store(ctx context.Context, report Report) error
}

// FileSink writes the report as indented JSON, creating parent
// directories as needed.
type FileSink struct {
	Path string
}

func (s FileSink) Store(ctx context.Context, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	err = os.MkdirAll(filepath.Dir(s.Path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0644)
}
