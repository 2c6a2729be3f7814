package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/gnana997/brgenlens/pkg/analysis"
	mcpserver "github.com/gnana997/brgenlens/pkg/mcp"
	"github.com/gnana997/brgenlens/pkg/mcplog"
	"github.com/gnana997/brgenlens/pkg/workspace"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default .brgenlens/config.yaml in the workspace root",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	path, err := writeProjectConfig(settingsFrom(c).Root, defaultProjectConfig(), c.Bool("force"))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.App.ErrWriter, "Created %s\n", path)
	return nil
}

type fileDiagnostics struct {
	Path        string                `json:"path"`
	Diagnostics []analysis.Diagnostic `json:"diagnostics"`
}

func diagnosticsCmd() *cli.Command {
	return &cli.Command{
		Name:      "diagnostics",
		Aliases:   []string{"diag"},
		Usage:     "Report compiler errors and warnings for files, or for the whole workspace",
		ArgsUsage: "[file.bgn...]",
		Flags:     dumpFlags(),
		Action:    runDiagnosticsCmd,
	}
}

func runDiagnosticsCmd(c *cli.Context) error {
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	var results []*analysis.Result
	if c.Args().Len() == 0 {
		if _, err := ws.Scan(c.Context, nil); err != nil {
			return err
		}
		results = ws.Results()
	} else {
		for _, path := range c.Args().Slice() {
			res, err := ws.AnalyzeFile(c.Context, path)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
	}

	if formatFrom(c) == formatText {
		for _, res := range results {
			writeDiagnosticsText(c.App.Writer, ws.Root(), res)
		}
		return nil
	}
	out := make([]fileDiagnostics, len(results))
	for i, res := range results {
		out[i] = fileDiagnostics{Path: res.Path, Diagnostics: res.Diagnostics}
	}
	return writeJSON(c.App.Writer, out)
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Analyze every .bgn file in the workspace",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw a progress bar",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	var progress scanProgress
	stats, err := ws.Scan(c.Context, progress.callback(!c.Bool("no-progress")))
	progress.finish()
	if err != nil {
		return err
	}

	if stats.FilesDiscovered == 0 {
		color.New(color.FgYellow).Fprintln(c.App.ErrWriter, "No .bgn files found")
	}
	if formatFrom(c) == formatJSON {
		return writeJSON(c.App.Writer, stats)
	}

	renderTable(c.App.Writer, []string{"metric", "value"}, [][]string{
		{"files discovered", fmt.Sprint(stats.FilesDiscovered)},
		{"files analyzed", fmt.Sprint(stats.FilesAnalyzed)},
		{"files failed", fmt.Sprint(stats.FilesFailed)},
		{"files with errors", fmt.Sprint(stats.FilesWithErrors)},
		{"diagnostics", fmt.Sprint(stats.Diagnostics)},
		{"degraded files", fmt.Sprint(stats.DegradedFiles)},
		{"workers", fmt.Sprint(stats.WorkerCount)},
		{"time", (time.Duration(stats.TotalTimeMs) * time.Millisecond).String()},
	})
	for _, fe := range stats.Errors {
		fmt.Fprintf(c.App.Writer, "%s %s: %s\n",
			color.RedString("failed"), displayPath(ws.Root(), fe.FilePath), fe.Message)
	}
	return nil
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Scan the workspace, then re-analyze files as they change",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "debounce",
				Usage: "Debounce delay in milliseconds (default from config, 200)",
			},
		},
		Action: runWatchCmd,
	}
}

// watchRecord is one line of `watch` output.
type watchRecord struct {
	Time        time.Time            `json:"time"`
	Path        string               `json:"path"`
	Op          string               `json:"op"`
	Errors      int                  `json:"errors"`
	Warnings    int                  `json:"warnings"`
	TokenSource analysis.TokenSource `json:"token_source,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func newWatchRecord(ev workspace.WatchEvent) watchRecord {
	rec := watchRecord{Time: ev.Timestamp, Path: ev.FilePath, Op: ev.Op}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	if ev.Result != nil {
		rec.TokenSource = ev.Result.TokenSource
		for _, d := range ev.Result.Diagnostics {
			if d.Severity == analysis.SeverityError {
				rec.Errors++
			} else {
				rec.Warnings++
			}
		}
	}
	return rec
}

func runWatchCmd(c *cli.Context) error {
	s := settingsFrom(c)
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := ws.Scan(ctx, nil); err != nil {
		return err
	}

	opts := workspace.DefaultWatchOptions()
	opts.DebounceMs = firstPositive(c.Int("debounce"), s.DebounceMs)

	var mu sync.Mutex
	text := formatFrom(c) == formatText
	fw, err := workspace.NewFileWatcher(ws, opts, func(ev workspace.WatchEvent) {
		mu.Lock()
		defer mu.Unlock()
		if text && ev.Result != nil {
			fmt.Fprintf(c.App.Writer, "%s %s\n", color.CyanString(ev.Op), displayPath(ws.Root(), ev.FilePath))
			writeDiagnosticsText(c.App.Writer, ws.Root(), ev.Result)
			return
		}
		rec := newWatchRecord(ev)
		if text {
			fmt.Fprintf(c.App.Writer, "%s %s %s\n", color.CyanString(rec.Op), displayPath(ws.Root(), rec.Path), rec.Error)
			return
		}
		_ = writeJSON(c.App.Writer, rec)
	})
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(c.App.ErrWriter, "Watching %s (Ctrl-C to stop)\n", ws.Root())

	<-ctx.Done()
	return fw.Stop()
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve analysis as MCP tools over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "call-log",
				Usage: "Append a JSONL record of every tool call to this file",
			},
			&cli.BoolFlag{
				Name:  "scan",
				Usage: "Scan the workspace before accepting requests",
			},
		},
		Action: runServeCmd,
	}
}

func runServeCmd(c *cli.Context) error {
	s := settingsFrom(c)
	logger := loggerFrom(c)

	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	if c.Bool("scan") {
		if _, err := ws.Scan(c.Context, nil); err != nil {
			return err
		}
	}

	callLog, err := mcplog.NewLogger(firstNonEmpty(c.String("call-log"), s.MCPLog))
	if err != nil {
		return fmt.Errorf("failed to open call log: %w", err)
	}
	defer callLog.Close()

	logger.Info("MCP server starting", "root", ws.Root(), "version", version)
	return mcpserver.NewServer(ws, callLog).ServeStdio()
}

func callsCmd() *cli.Command {
	return &cli.Command{
		Name:      "calls",
		Usage:     "Summarize an MCP tool-call log written by `serve --call-log`",
		ArgsUsage: "[log.jsonl]",
		Action:    runCallsCmd,
	}
}

func runCallsCmd(c *cli.Context) error {
	path := firstNonEmpty(c.Args().First(), settingsFrom(c).MCPLog)
	if path == "" {
		return errors.New("calls: no log file given and mcp_log is not configured")
	}
	entries, err := mcplog.ReadEntries(path)
	if err != nil {
		return err
	}
	summary := mcplog.Summarize(entries)

	if formatFrom(c) == formatJSON {
		return writeJSON(c.App.Writer, summary)
	}
	rows := make([][]string, len(summary))
	for i, ts := range summary {
		errs := fmt.Sprint(ts.Errors)
		if ts.Errors > 0 {
			errs = color.RedString(errs)
		}
		rows[i] = []string{
			ts.Tool,
			fmt.Sprint(ts.Calls),
			errs,
			fmt.Sprintf("%.1f", float64(ts.TotalMs)/float64(ts.Calls)),
			fmt.Sprint(ts.MaxMs),
			fmt.Sprint(ts.TokensEst),
		}
	}
	renderTable(c.App.Writer, []string{"tool", "calls", "errors", "avg ms", "max ms", "tokens"}, rows)
	return nil
}
