package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/diskseek/diskseek/internal/search"
	"github.com/diskseek/diskseek/internal/volume"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// palette returns colour printers that are no-ops unless w is a terminal.
func palette(w io.Writer) (header, accent, dim *color.Color) {
	header = color.New(color.FgCyan, color.Bold)
	accent = color.New(color.FgGreen)
	dim = color.New(color.Faint)
	for _, c := range []*color.Color{header, accent, dim} {
		if isTerminal(w) {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return header, accent, dim
}

func writeStructured(w io.Writer, format outputFormat, v interface{}) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}

// yamlMatch gives YAML output the same keys as JSON.
type yamlMatch struct {
	Path       string `yaml:"path"`
	Name       string `yaml:"name"`
	Size       int64  `yaml:"size"`
	SourceRoot string `yaml:"sourceRoot"`
}

type yamlVolume struct {
	Label          string `yaml:"label"`
	MountPoint     string `yaml:"mountPoint"`
	Filesystem     string `yaml:"filesystem,omitempty"`
	Type           string `yaml:"type,omitempty"`
	AvailableBytes uint64 `yaml:"availableBytes"`
	TotalBytes     uint64 `yaml:"totalBytes"`
}

func writeMatches(w io.Writer, format outputFormat, matches []search.Match) error {
	switch format {
	case formatJSON:
		return writeStructured(w, format, matches)
	case formatYAML:
		out := make([]yamlMatch, len(matches))
		for i, m := range matches {
			out[i] = yamlMatch(m)
		}
		return writeStructured(w, format, out)
	}

	header, accent, dim := palette(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header.Sprint("SIZE")+"\t"+header.Sprint("PATH"))
	for _, m := range matches {
		size := humanize.IBytes(uint64(max(m.Size, 0)))
		fmt.Fprintf(tw, "%s\t%s\n", dim.Sprint(size), accent.Sprint(m.Path))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d %s\n", len(matches), plural(len(matches), "match", "matches"))
	return err
}

func writeVolumes(w io.Writer, format outputFormat, volumes []volume.Info) error {
	switch format {
	case formatJSON:
		return writeStructured(w, format, volumes)
	case formatYAML:
		out := make([]yamlVolume, len(volumes))
		for i, v := range volumes {
			out[i] = yamlVolume(v)
		}
		return writeStructured(w, format, out)
	}

	header, accent, dim := palette(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{
		header.Sprint("LABEL"), header.Sprint("MOUNT"), header.Sprint("FS"),
		header.Sprint("TYPE"), header.Sprint("FREE"), header.Sprint("TOTAL"), header.Sprint("USED"),
	}, "\t"))
	for _, v := range volumes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Label,
			accent.Sprint(v.MountPoint),
			v.Filesystem,
			v.Type,
			humanize.IBytes(v.AvailableBytes),
			humanize.IBytes(v.TotalBytes),
			dim.Sprint(humanize.FtoaWithDigits(v.UsedPercent(), 1)+"%"),
		)
	}
	return tw.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
