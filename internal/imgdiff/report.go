package imgdiff

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects how a Result is written
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Write renders res in the given format
func Write(w io.Writer, res *Result, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatText, "":
		return writeText(w, res)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeText(w io.Writer, res *Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "--- %s\n+++ %s\n", res.Old, res.New)
	if res.Identical() {
		b.WriteString("images are identical\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, p := range res.Removed {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	for _, p := range res.Added {
		fmt.Fprintf(&b, "+ %s\n", p)
	}
	for _, c := range res.Changed {
		fmt.Fprintf(&b, "M %s [%s]", c.Path, strings.Join(c.Kinds, ","))
		if c.Old != "" || c.New != "" {
			fmt.Fprintf(&b, " %s -> %s", short(c.Old), short(c.New))
		}
		b.WriteString("\n")
		if c.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(c.Diff, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	fmt.Fprintf(&b, "\n%d added, %d removed, %d changed\n", len(res.Added), len(res.Removed), len(res.Changed))
	_, err := io.WriteString(w, b.String())
	return err
}

// short abbreviates checksums
func short(s string) string {
	if len(s) == 64 && !strings.ContainsAny(s, " -.") {
		return s[:12]
	}
	return s
}
