package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/schollz/progressbar/v3"

	"github.com/gnana997/brgenlens/pkg/analysis"
)

// outputFormat selects how results are written to stdout.
type outputFormat string

const (
	formatJSON outputFormat = "json"
	formatText outputFormat = "text"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatJSON, formatText:
		return f, nil
	case "":
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or text)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable writes a borderless, left-aligned table.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// writeDiagnosticsText prints diagnostics in the compiler's
// file:line:col form. Positions are 1-based.
func writeDiagnosticsText(w io.Writer, root string, res *analysis.Result) {
	name := displayPath(root, res.Path)
	for _, d := range res.Diagnostics {
		severity := color.YellowString("warning")
		if d.Severity == analysis.SeverityError {
			severity = color.RedString("error")
		}
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
			name, d.Range.Start.Line+1, d.Range.Start.Character+1, severity, d.Message)
	}
}

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// scanProgress draws a progress bar on stderr while a scan runs.
type scanProgress struct {
	bar *progressbar.ProgressBar
}

// callback returns the workspace.ProgressCallback for a scan, or nil when
// progress is disabled. The bar is created on the first call, once the
// number of files is known.
func (p *scanProgress) callback(enabled bool) func(done, total int, currentFile string) {
	if !enabled {
		return nil
	}
	return p.update
}

func (p *scanProgress) update(done, total int, _ string) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription("Analyzing..."),
			progressbar.OptionUseANSICodes(true),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Set(done)
}

func (p *scanProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	_ = p.bar.Clear()
}
