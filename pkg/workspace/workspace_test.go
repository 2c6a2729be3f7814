package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/brgenlens/pkg/analysis"
	"github.com/gnana997/brgenlens/pkg/ast/asttest"
	"github.com/gnana997/brgenlens/pkg/compiler"
	"github.com/gnana997/brgenlens/pkg/util"
)

var errCompilerDown = errors.New("compiler down")

// fakeCompiler answers every file with the sample fixture. Files whose
// name contains "bad" fail both runs.
type fakeCompiler struct {
	parses    atomic.Int32
	tokenizes atomic.Int32
	noParse   bool
}

func (f *fakeCompiler) runner() compiler.Runner {
	return compiler.Funcs{
		ParseFunc: func(_ context.Context, path string, _ []byte) ([]byte, error) {
			f.parses.Add(1)
			if f.noParse || strings.Contains(path, "bad") {
				return nil, errCompilerDown
			}
			return asttest.NewSample(path).JSON(), nil
		},
		TokenizeFunc: func(_ context.Context, path string, _ []byte) ([]byte, error) {
			f.tokenizes.Add(1)
			if strings.Contains(path, "bad") {
				return nil, errCompilerDown
			}
			return asttest.SampleTokens(path), nil
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestWorkspace(t *testing.T, fc *fakeCompiler) *Workspace {
	t.Helper()
	ws, err := New(Config{
		Root:    t.TempDir(),
		Runner:  fc.runner(),
		Options: DefaultScanOptions(),
		Logger:  util.DiscardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestNew_RequiresRunner(t *testing.T) {
	_, err := New(Config{Root: t.TempDir()})
	assert.Error(t, err)
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Config{
		Root:    t.TempDir(),
		Runner:  compiler.Funcs{},
		Options: ScanOptions{Include: []string{"[unclosed"}},
	})
	assert.Error(t, err)
}

func TestAnalyzeFile(t *testing.T) {
	fc := &fakeCompiler{}
	ws := newTestWorkspace(t, fc)
	path := filepath.Join(ws.Root(), "sample.bgn")
	writeFile(t, path, asttest.SampleSource)

	res, err := ws.AnalyzeFile(context.Background(), "sample.bgn")
	require.NoError(t, err)
	assert.Equal(t, analysis.PathToURI(path), res.URI)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, uint64(1), res.File)
	assert.Equal(t, analysis.TokensFull, res.TokenSource)
	require.NotNil(t, res.Doc)

	h := res.Doc.Hover(asttest.OffsetRefA)
	require.NotNil(t, h)
	assert.Equal(t, "a", h.Title)

	got, ok := ws.Result(path)
	require.True(t, ok)
	assert.Same(t, res, got)
}

func TestAnalyzeFile_SkipsUnchanged(t *testing.T) {
	fc := &fakeCompiler{}
	ws := newTestWorkspace(t, fc)
	path := filepath.Join(ws.Root(), "sample.bgn")
	writeFile(t, path, asttest.SampleSource)

	first, err := ws.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	second, err := ws.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), fc.parses.Load())

	writeFile(t, path, asttest.SampleSource+"\n")
	third, err := ws.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Greater(t, third.Generation, first.Generation)
	assert.Equal(t, int32(2), fc.parses.Load())
}

func TestAnalyzeFile_Missing(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})
	_, err := ws.AnalyzeFile(context.Background(), "nope.bgn")
	assert.Error(t, err)
}

func TestAnalyzeSource_ParseFailureFallsBackToLexer(t *testing.T) {
	fc := &fakeCompiler{noParse: true}
	ws := newTestWorkspace(t, fc)

	res, err := ws.AnalyzeSource(context.Background(), "unsaved.bgn", []byte(asttest.SampleSource))
	require.NoError(t, err)
	assert.Equal(t, analysis.TokensLexer, res.TokenSource)
	assert.Nil(t, res.Doc)
	assert.NotEmpty(t, res.Tokens.Data)
}

func TestAnalyzeSource_ParseFailureDoesNotCancelLexer(t *testing.T) {
	parsed := make(chan struct{})
	ws, err := New(Config{
		Root: t.TempDir(),
		Runner: compiler.Funcs{
			ParseFunc: func(context.Context, string, []byte) ([]byte, error) {
				close(parsed)
				return nil, errCompilerDown
			},
			TokenizeFunc: func(ctx context.Context, path string, _ []byte) ([]byte, error) {
				<-parsed
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(50 * time.Millisecond):
				}
				return asttest.SampleTokens(path), nil
			},
		},
		Options: DefaultScanOptions(),
		Logger:  util.DiscardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	res, err := ws.AnalyzeSource(context.Background(), "unsaved.bgn", []byte(asttest.SampleSource))
	require.NoError(t, err)
	assert.Equal(t, analysis.TokensLexer, res.TokenSource)
	assert.NotEmpty(t, res.Tokens.Data)
}

func TestAnalyzeSource_BothFail(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})

	_, err := ws.AnalyzeSource(context.Background(), "bad.bgn", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errCompilerDown)
}

func TestAnalyzeSource_Cancelled(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ws.AnalyzeSource(ctx, "sample.bgn", []byte(asttest.SampleSource))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScan(t *testing.T) {
	fc := &fakeCompiler{}
	ws := newTestWorkspace(t, fc)
	root := ws.Root()
	writeFile(t, filepath.Join(root, "a.bgn"), asttest.SampleSource)
	writeFile(t, filepath.Join(root, "proto", "b.bgn"), asttest.SampleSource)
	writeFile(t, filepath.Join(root, "proto", "c.bgn"), asttest.SampleSource)
	writeFile(t, filepath.Join(root, "bad.bgn"), "broken")
	writeFile(t, filepath.Join(root, "build", "gen.bgn"), asttest.SampleSource)
	writeFile(t, filepath.Join(root, "README.md"), "# docs")

	var calls, lastDone, lastTotal int
	stats, err := ws.Scan(context.Background(), func(done, total int, _ string) {
		calls++
		lastDone, lastTotal = done, total
	})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.FilesDiscovered)
	assert.Equal(t, 3, stats.FilesAnalyzed)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, 0, stats.FilesWithErrors)
	assert.Equal(t, 0, stats.DegradedFiles)
	assert.False(t, stats.Cancelled)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, filepath.Join(root, "bad.bgn"), stats.Errors[0].FilePath)
	assert.Contains(t, stats.Errors[0].Message, "compiler down")

	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, lastDone)
	assert.Equal(t, 4, lastTotal)

	results := ws.Results()
	require.Len(t, results, 3)
	assert.Equal(t, filepath.Join(root, "a.bgn"), results[0].Path)
	assert.Equal(t, filepath.Join(root, "proto", "b.bgn"), results[1].Path)
	assert.Equal(t, filepath.Join(root, "proto", "c.bgn"), results[2].Path)
}

func TestScan_Empty(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})

	stats, err := ws.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesDiscovered)
	assert.Equal(t, 0, stats.WorkerCount)
}

func TestScan_Cancelled(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})
	for _, name := range []string{"a.bgn", "b.bgn", "c.bgn"} {
		writeFile(t, filepath.Join(ws.Root(), name), asttest.SampleSource)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := ws.Scan(ctx, nil)
	require.NoError(t, err)
	assert.True(t, stats.Cancelled)
	assert.Equal(t, 3, stats.FilesDiscovered)
}

func TestRemove(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})
	path := filepath.Join(ws.Root(), "sample.bgn")
	writeFile(t, path, asttest.SampleSource)

	_, err := ws.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, ws.Results(), 1)

	ws.Remove(path)
	_, ok := ws.Result(path)
	assert.False(t, ok)
	assert.Empty(t, ws.Results())
}

func TestAbs(t *testing.T) {
	ws := newTestWorkspace(t, &fakeCompiler{})
	assert.Equal(t, filepath.Join(ws.Root(), "a", "b.bgn"), ws.Abs(filepath.Join("a", "b.bgn")))
	assert.Equal(t, filepath.Join(ws.Root(), "x.bgn"), ws.Abs(filepath.Join(ws.Root(), "y", "..", "x.bgn")))
}
