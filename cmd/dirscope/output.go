package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/CageChen/dirscope/internal/entry"
	"github.com/fatih/color"
)

var (
	dirColor     = color.New(color.FgBlue, color.Bold)
	fileColor    = color.New(color.Reset)
	linkColor    = color.New(color.FgCyan)
	unknownColor = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
	warnColor    = color.New(color.FgYellow)
)

func colorFor(t entry.Type) *color.Color {
	switch t {
	case entry.Directory:
		return dirColor
	case entry.File:
		return fileColor
	case entry.Link:
		return linkColor
	default:
		return unknownColor
	}
}

// entryLabel renders an entry as "[Directory] name", with a trailing "+"
// for directories that have children.
func entryLabel(e entry.Entry) string {
	label := fmt.Sprintf("[%s] %s", e.Type().Label(), e.Name())
	if e.HasChildren() {
		label += " +"
	}
	return label
}

func printEntries(w io.Writer, entries []entry.Entry) {
	for _, e := range entries {
		_, _ = colorFor(e.Type()).Fprintln(w, entryLabel(e))
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	_, _ = warnColor.Fprintf(w, "Warning: "+format+"\n", args...)
}
