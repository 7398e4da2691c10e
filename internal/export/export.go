// Package export writes index results to disk as JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/CageChen/dirscope/internal/entry"
	"github.com/CageChen/dirscope/internal/indexer"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Writer writes one file per index partition into Dir.
type Writer struct {
	Dir    string
	Format string
	Pretty bool
}

// Encode writes records to w in the writer's format.
func (w *Writer) Encode(out io.Writer, records []entry.Record) error {
	switch w.Format {
	case FormatJSON, "":
		enc := json.NewEncoder(out)
		if w.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		if w.Pretty {
			enc.SetIndent(2)
		}
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q", w.Format)
	}
}

func (w *Writer) ext() string {
	if w.Format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// WriteIndex writes directories, files and links of idx to separate files
// and returns their paths.
func (w *Writer) WriteIndex(idx *indexer.Index) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, err
	}

	parts := []struct {
		name    string
		entries []entry.Entry
	}{
		{"directories", idx.Directories},
		{"files", idx.Files},
		{"links", idx.Links},
	}

	written := make([]string, 0, len(parts))
	for _, p := range parts {
		path := filepath.Join(w.Dir, p.name+w.ext())
		if err := w.writeFile(path, entry.Records(p.entries)); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (w *Writer) writeFile(path string, records []entry.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w.Encode(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
