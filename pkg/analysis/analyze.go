package analysis

import (
	"errors"
	"log/slog"

	"github.com/gnana997/brgenlens/pkg/ast"
	"github.com/gnana997/brgenlens/pkg/cache"
)

// Input is one analysis request: the compiler output for a document.
type Input struct {
	// URI identifies the document in the cache.
	URI string
	// Path is the document's file path, used to find it in the file table.
	Path string
	// Generation is the pass number from Analyzer.Begin. Zero begins a
	// new generation automatically.
	Generation uint64
	// Source is the document text. Optional; without it ranges assume
	// single-line spans and position queries are unavailable.
	Source []byte
	// AST is the src2json envelope {ast, file, error}. Optional.
	AST []byte
	// Tokens is the src2json --lexer envelope {tokens, error}. Optional.
	Tokens []byte
}

// TokenSource tells how a result's semantic tokens were produced.
type TokenSource string

const (
	// TokensFull combines lexer and AST classification.
	TokensFull TokenSource = "full"
	// TokensLexer is the lexer-only stream used when the AST is missing.
	TokensLexer TokenSource = "lexer"
	// TokensAST is AST classification without lexer tokens.
	TokensAST TokenSource = "ast"
	// TokensCached is the previous committed stream, reused when neither
	// input is usable.
	TokensCached TokenSource = "cached"
	// TokensNone means nothing was available.
	TokensNone TokenSource = "none"
)

// Result is the outcome of one analysis pass.
type Result struct {
	URI        string `json:"uri"`
	Path       string `json:"path,omitempty"`
	Generation uint64 `json:"generation"`
	// File is the 1-based index of the document in the file table.
	File        uint64          `json:"file"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
	Tokens      *SemanticTokens `json:"semanticTokens"`
	TokenSource TokenSource     `json:"tokenSource"`
	// CarriedOver is set when this pass produced no graph and Previous
	// holds the graph of the last pass that did.
	CarriedOver bool `json:"carriedOver,omitempty"`

	// Doc answers position queries. Nil when this pass produced no graph;
	// queries against a failed pass find nothing.
	Doc *Document `json:"-"`
	// Previous is the last good graph, built from older source text. It
	// never answers position queries for this pass.
	Previous *Document `json:"-"`
	// Err is the decode failure of this pass, if any.
	Err error `json:"-"`
}

// Document is a decoded graph bound to one active file.
//
// **Thread Safety:** Immutable once built; queries are safe from any
// goroutine.
type Document struct {
	URI        string
	Path       string
	Generation uint64
	AST        *ast.AST
	File       uint64
	Lines      *LineIndex

	logger *slog.Logger
}

// Offset converts a 0-based position to a byte offset. It reports false
// when the document was analyzed without its source text.
func (d *Document) Offset(p Position) (uint64, bool) {
	if d.Lines == nil {
		return 0, false
	}
	return d.Lines.Offset(p), true
}

// Hover returns the hover at offset, or nil. A resolution overflow is
// logged and the ident is described as unknown.
func (d *Document) Hover(offset uint64) *Hover {
	h, err := HoverAt(d.AST, d.File, offset)
	if err != nil {
		d.logger.Warn("hover resolution failed",
			"uri", d.URI, "generation", d.Generation, "offset", offset, "error", err)
	}
	return h
}

// Definition returns the definition of the ident at offset, or nil.
func (d *Document) Definition(offset uint64) *Definition {
	def, err := DefinitionAt(d.AST, d.File, offset)
	if err != nil {
		d.logger.Warn("definition resolution failed",
			"uri", d.URI, "generation", d.Generation, "offset", offset, "error", err)
		return nil
	}
	return def
}

// Symbols returns the document outline.
func (d *Document) Symbols() []DocumentSymbol {
	return DocumentSymbols(d.AST, d.File, d.Lines)
}

// Analyzer turns compiler output into results and keeps the last good
// result per document.
//
// **Usage:**
//
//	a := analysis.NewAnalyzer(cache.New[*analysis.Result](cache.DefaultConfig(), logger), logger)
//	gen := a.Begin(uri)
//	res, err := a.AnalyzeSourceCode(analysis.Input{URI: uri, Generation: gen, ...})
//	if errors.Is(err, cache.ErrStaleGeneration) {
//	    return // a newer edit is being analyzed
//	}
//
// **Thread Safety:** Safe for concurrent use; the cache serializes commits.
type Analyzer struct {
	cache  *cache.DocumentCache[*Result]
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil cache gets a default-sized one; a
// nil logger uses slog.Default().
func NewAnalyzer(c *cache.DocumentCache[*Result], logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New[*Result](cache.DefaultConfig(), logger)
	}
	return &Analyzer{cache: c, logger: logger}
}

// Begin starts a new pass for uri.
func (a *Analyzer) Begin(uri string) uint64 {
	return a.cache.Begin(uri)
}

// Close forgets uri and rejects passes still in flight for it.
func (a *Analyzer) Close(uri string) {
	a.cache.Close(uri)
}

// Latest returns the last committed result for uri.
func (a *Analyzer) Latest(uri string) (*Result, bool) {
	e, ok := a.cache.Get(uri)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Fresh reports whether the committed result for uri was computed from
// exactly this source text.
func (a *Analyzer) Fresh(uri string, source []byte) bool {
	return a.cache.Fresh(uri, cache.HashContent(source))
}

// Stats exposes the cache counters.
func (a *Analyzer) Stats() cache.Stats {
	return a.cache.Stats()
}

// AnalyzeSourceCode runs one pass and commits it.
//
// **Degradation:**
//   - Malformed or missing AST: the previous committed graph is carried
//     over for position queries and tokens come from the lexer alone.
//   - Neither AST nor tokens usable: the previous committed tokens are
//     reused, or an empty stream when there are none.
//
// Compiler diagnostics never make the pass fail. A superseded pass returns
// an error wrapping cache.ErrStaleGeneration and commits nothing.
func (a *Analyzer) AnalyzeSourceCode(in Input) (*Result, error) {
	gen := in.Generation
	if gen == 0 {
		gen = a.cache.Begin(in.URI)
	}
	logger := a.logger.With("uri", in.URI, "generation", gen)

	var lines *LineIndex
	if in.Source != nil {
		lines = NewLineIndex(in.Source)
	}

	res := &Result{URI: in.URI, Path: in.Path, Generation: gen, TokenSource: TokensNone}

	var (
		tree   *ast.AST
		srcErr *ast.SrcError
		files  []string
	)
	if len(in.AST) > 0 {
		var err error
		tree, srcErr, err = ast.DecodeFile(in.AST)
		if err != nil {
			res.Err = err
			if errors.Is(err, ast.ErrMalformedAst) {
				logger.Warn("malformed ast", "error", err)
			} else {
				logger.Warn("failed to decode ast", "error", err)
			}
		}
		if tree != nil {
			files = tree.Files
		}
	}

	var tokens *ast.TokenFile
	if len(in.Tokens) > 0 {
		tf, err := ast.DecodeTokens(in.Tokens)
		if err != nil {
			logger.Warn("failed to decode tokens", "error", err)
			if res.Err == nil {
				res.Err = err
			}
		} else {
			tokens = tf
			if files == nil {
				files = tf.Files
			}
			if srcErr == nil {
				srcErr = tf.Error
			}
		}
	}

	res.File = FileIndex(files, in.Path)
	res.Diagnostics = Diagnostics(srcErr, res.File, lines)

	var prev *Result
	if e, ok := a.cache.Get(in.URI); ok {
		prev = e.Value
	}

	if tree != nil {
		res.Doc = &Document{
			URI:        in.URI,
			Path:       in.Path,
			Generation: gen,
			AST:        tree,
			File:       res.File,
			Lines:      lines,
			logger:     a.logger,
		}
	} else if prev != nil {
		res.Previous = prev.Doc
		if res.Previous == nil {
			res.Previous = prev.Previous
		}
		res.CarriedOver = res.Previous != nil
	}

	switch {
	case tree != nil || tokens != nil:
		var toks []ast.Token
		if tokens != nil {
			toks = tokens.Tokens
		}
		st, errs := BuildSemanticTokens(tree, toks, res.File)
		for _, err := range errs {
			logger.Warn("semantic token resolution failed", "error", err)
		}
		res.Tokens = st
		switch {
		case tree != nil && tokens != nil:
			res.TokenSource = TokensFull
		case tree != nil:
			res.TokenSource = TokensAST
		default:
			res.TokenSource = TokensLexer
		}
	case prev != nil && prev.Tokens != nil:
		res.Tokens = prev.Tokens
		res.TokenSource = TokensCached
	default:
		res.Tokens = &SemanticTokens{Data: []uint32{}}
	}

	hash := cache.HashContent(in.Source)
	if in.Source == nil {
		hash = cache.HashContent(in.AST)
	}
	if err := a.cache.Commit(in.URI, gen, hash, res); err != nil {
		return nil, err
	}
	logger.Debug("analysis committed",
		"file", res.File,
		"diagnostics", len(res.Diagnostics),
		"token_source", res.TokenSource,
		"carried_over", res.CarriedOver)
	return res, nil
}
