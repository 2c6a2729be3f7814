package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	mcpserver "github.com/gnana997/brgenlens/pkg/mcp"
	"github.com/gnana997/brgenlens/pkg/util"
)

var version = "0.1.0-dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "brgenlens",
		Usage:    "Hover, definitions and highlighting for brgen sources",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `brgenlens runs the brgen compiler (src2json) over .bgn files and answers
editor queries against the resulting AST: hover, go-to-definition, semantic
tokens, document symbols and diagnostics. It can also serve the same queries
as MCP tools over stdio.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory (default: current directory)",
				EnvVars: []string{"BRGENLENS_ROOT"},
			},
			&cli.StringFlag{
				Name:    "src2json",
				Usage:   "Path or name of the src2json compiler",
				EnvVars: []string{"BRGENLENS_SRC2JSON"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "json",
				Usage:   "Output format: json, text",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"BRGENLENS_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: json, text",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel compiler invocations during scans (default: CPU based)",
			},
		},
		Before: func(c *cli.Context) error {
			root := c.String("root")
			if root == "" {
				root = "."
			}
			cfg, err := loadProjectConfig(root)
			if err != nil {
				return err
			}
			s, err := resolveSettings(flagValues{
				Root:      root,
				Src2JSON:  c.String("src2json"),
				LogLevel:  c.String("log-level"),
				LogFormat: c.String("log-format"),
				Workers:   c.Int("workers"),
			}, cfg)
			if err != nil {
				return err
			}
			if _, err := parseOutputFormat(c.String("format")); err != nil {
				return err
			}

			logger := util.NewLogger(util.LoggerConfig{
				Level:  s.LogLevel,
				Format: s.LogFormat,
				Output: c.App.ErrWriter,
			})
			util.SetDefault(logger)

			c.App.Metadata["settings"] = s
			c.App.Metadata["logger"] = logger
			return nil
		},
		Commands: []*cli.Command{
			initCmd(),
			analyzeCmd(),
			hoverCmd(),
			definitionCmd(),
			tokensCmd(),
			symbolsCmd(),
			diagnosticsCmd(),
			scanCmd(),
			watchCmd(),
			serveCmd(),
			callsCmd(),
		},
	}
}

func settingsFrom(c *cli.Context) *settings {
	if s, ok := c.App.Metadata["settings"].(*settings); ok {
		return s
	}
	s, _ := resolveSettings(flagValues{}, nil)
	return s
}

func loggerFrom(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata["logger"].(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func formatFrom(c *cli.Context) outputFormat {
	f, _ := parseOutputFormat(c.String("format"))
	return f
}

func init() {
	mcpserver.Version = version
}

// requireFile returns the single positional file argument.
func requireFile(c *cli.Context) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("%s: expected exactly one .bgn file argument", c.Command.Name)
	}
	return c.Args().First(), nil
}
