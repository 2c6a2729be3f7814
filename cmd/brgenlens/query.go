package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/gnana997/brgenlens/pkg/analysis"
	"github.com/gnana997/brgenlens/pkg/cache"
	"github.com/gnana997/brgenlens/pkg/compiler"
	"github.com/gnana997/brgenlens/pkg/workspace"
)

// dumpFlags select pre-dumped compiler output instead of running src2json.
func dumpFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ast",
			Usage: "Read the AST envelope from this file instead of running src2json",
		},
		&cli.StringFlag{
			Name:  "tokens",
			Usage: "Read the lexer envelope from this file instead of running src2json --lexer",
		},
	}
}

func positionFlags() []cli.Flag {
	return append(dumpFlags(),
		&cli.IntFlag{
			Name:     "line",
			Aliases:  []string{"l"},
			Usage:    "0-based line",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "character",
			Aliases:  []string{"c"},
			Usage:    "0-based byte column within the line",
			Required: true,
		},
	)
}

// newRunner returns the compiler runner for c. Dump files take precedence;
// when only one is given the other half of the pass is missing and the
// analysis degrades accordingly.
func newRunner(c *cli.Context, s *settings, logger *slog.Logger) (compiler.Runner, error) {
	astFile, tokensFile := c.String("ast"), c.String("tokens")
	if astFile == "" && tokensFile == "" {
		return compiler.NewSrc2JSON(s.Src2JSON,
			compiler.WithArgs(s.Src2JSONArgs...),
			compiler.WithLogger(logger))
	}

	var f compiler.Funcs
	if astFile != "" {
		f.ParseFunc = readDump(astFile)
	}
	if tokensFile != "" {
		f.TokenizeFunc = readDump(tokensFile)
	}
	return f, nil
}

func readDump(path string) func(context.Context, string, []byte) ([]byte, error) {
	return func(context.Context, string, []byte) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read dump: %w", err)
		}
		return data, nil
	}
}

// openWorkspace builds the workspace for a command from the resolved
// settings.
func openWorkspace(c *cli.Context) (*workspace.Workspace, error) {
	s := settingsFrom(c)
	logger := loggerFrom(c)

	runner, err := newRunner(c, s, logger)
	if err != nil {
		return nil, err
	}
	docs := cache.New[*analysis.Result](cache.Config{MaxDocuments: s.CacheSize}, logger)
	return workspace.New(workspace.Config{
		Root:     s.Root,
		Runner:   runner,
		Analyzer: analysis.NewAnalyzer(docs, logger),
		Options:  s.Scan,
		Logger:   logger,
	})
}

// analyzeArg analyzes the command's file argument.
func analyzeArg(c *cli.Context) (*workspace.Workspace, *analysis.Result, error) {
	path, err := requireFile(c)
	if err != nil {
		return nil, nil, err
	}
	ws, err := openWorkspace(c)
	if err != nil {
		return nil, nil, err
	}
	res, err := ws.AnalyzeFile(c.Context, path)
	if err != nil {
		ws.Close()
		return nil, nil, err
	}
	return ws, res, nil
}

// queryOffset converts --line/--character into a byte offset of the
// analyzed document.
func queryOffset(c *cli.Context, res *analysis.Result) (uint64, error) {
	line, character := c.Int("line"), c.Int("character")
	if line < 0 || character < 0 {
		return 0, errors.New("--line and --character must be non-negative")
	}
	if res.Doc == nil {
		return 0, fmt.Errorf("%s: no syntax tree available (run `diagnostics` for details)", res.Path)
	}
	offset, ok := res.Doc.Offset(analysis.Position{Line: uint32(line), Character: uint32(character)})
	if !ok {
		return 0, fmt.Errorf("%s: no source text for position mapping", res.Path)
	}
	return offset, nil
}

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Compile a file and print the full analysis result",
		ArgsUsage: "<file.bgn>",
		Flags:     dumpFlags(),
		Action:    runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	ws, res, err := analyzeArg(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	if formatFrom(c) == formatText {
		writeDiagnosticsText(c.App.Writer, ws.Root(), res)
		fmt.Fprintf(c.App.Writer, "tokens: %d (%s)\n", len(res.Tokens.Data)/5, res.TokenSource)
		if res.Doc != nil {
			fmt.Fprintf(c.App.Writer, "symbols: %d\n", len(res.Doc.Symbols()))
		}
		return nil
	}
	return writeJSON(c.App.Writer, res)
}

func hoverCmd() *cli.Command {
	return &cli.Command{
		Name:      "hover",
		Usage:     "Describe the symbol at a position",
		ArgsUsage: "<file.bgn>",
		Flags:     positionFlags(),
		Action:    runHoverCmd,
	}
}

func runHoverCmd(c *cli.Context) error {
	ws, res, err := analyzeArg(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	offset, err := queryOffset(c, res)
	if err != nil {
		return err
	}
	h := res.Doc.Hover(offset)
	if h == nil {
		if formatFrom(c) == formatText {
			fmt.Fprintln(c.App.ErrWriter, "no hover information at this position")
			return nil
		}
		return writeJSON(c.App.Writer, nil)
	}
	if formatFrom(c) == formatText {
		fmt.Fprintln(c.App.Writer, h.Markdown)
		return nil
	}
	return writeJSON(c.App.Writer, h.LSP(res.Doc.Lines))
}

func definitionCmd() *cli.Command {
	return &cli.Command{
		Name:      "definition",
		Aliases:   []string{"def"},
		Usage:     "Find where the identifier at a position is defined",
		ArgsUsage: "<file.bgn>",
		Flags:     positionFlags(),
		Action:    runDefinitionCmd,
	}
}

func runDefinitionCmd(c *cli.Context) error {
	ws, res, err := analyzeArg(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	offset, err := queryOffset(c, res)
	if err != nil {
		return err
	}
	def := res.Doc.Definition(offset)
	if def == nil {
		if formatFrom(c) == formatText {
			fmt.Fprintln(c.App.ErrWriter, "no definition found")
			return nil
		}
		return writeJSON(c.App.Writer, nil)
	}
	if formatFrom(c) == formatText {
		fmt.Fprintf(c.App.Writer, "%s:%d:%d\n", displayPath(ws.Root(), def.Path), def.Loc.Line, def.Loc.Col)
		return nil
	}
	return writeJSON(c.App.Writer, def.LSP())
}

func tokensCmd() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "Print the semantic token stream of a file",
		ArgsUsage: "<file.bgn>",
		Flags: append(dumpFlags(),
			&cli.BoolFlag{
				Name:  "decoded",
				Usage: "Print absolute spans instead of delta-encoded data",
			},
		),
		Action: runTokensCmd,
	}
}

type tokenSpan struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
	Length    uint32 `json:"length"`
	Type      string `json:"type"`
}

func runTokensCmd(c *cli.Context) error {
	ws, res, err := analyzeArg(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	if !c.Bool("decoded") && formatFrom(c) == formatJSON {
		return writeJSON(c.App.Writer, struct {
			Legend      []string                 `json:"legend"`
			TokenSource analysis.TokenSource     `json:"tokenSource"`
			Tokens      *analysis.SemanticTokens `json:"semanticTokens"`
		}{analysis.Legend, res.TokenSource, res.Tokens})
	}

	spans := analysis.DecodeSemanticTokens(res.Tokens.Data)
	if formatFrom(c) == formatText {
		rows := make([][]string, len(spans))
		for i, sp := range spans {
			rows[i] = []string{
				fmt.Sprint(sp.Line), fmt.Sprint(sp.Col), fmt.Sprint(sp.Length), sp.Type.String(),
			}
		}
		renderTable(c.App.Writer, []string{"line", "char", "len", "type"}, rows)
		return nil
	}
	out := make([]tokenSpan, len(spans))
	for i, sp := range spans {
		out[i] = tokenSpan{Line: sp.Line, Character: sp.Col, Length: sp.Length, Type: sp.Type.String()}
	}
	return writeJSON(c.App.Writer, out)
}

func symbolsCmd() *cli.Command {
	return &cli.Command{
		Name:      "symbols",
		Usage:     "Print the outline of a file",
		ArgsUsage: "<file.bgn>",
		Flags:     dumpFlags(),
		Action:    runSymbolsCmd,
	}
}

func runSymbolsCmd(c *cli.Context) error {
	ws, res, err := analyzeArg(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	symbols := []analysis.DocumentSymbol{}
	if res.Doc != nil {
		symbols = res.Doc.Symbols()
	}
	if formatFrom(c) == formatText {
		writeSymbolsText(c, symbols, 0)
		return nil
	}
	return writeJSON(c.App.Writer, symbols)
}

func writeSymbolsText(c *cli.Context, symbols []analysis.DocumentSymbol, depth int) {
	for _, sym := range symbols {
		fmt.Fprintf(c.App.Writer, "%*s%s", depth*2, "", sym.Name)
		if sym.Detail != "" {
			fmt.Fprintf(c.App.Writer, "  %s", color.CyanString(sym.Detail))
		}
		fmt.Fprintf(c.App.Writer, "  (line %d)\n", sym.Range.Start.Line+1)
		writeSymbolsText(c, sym.Children, depth+1)
	}
}
