package analysis

import "github.com/gnana997/brgenlens/pkg/ast"

// DiagnosticSource is the source label on every diagnostic.
const DiagnosticSource = "brgen"

// Diagnostics maps compiler errors onto the active file. Entries located
// in other files are dropped; entries without a location (bare-string
// compiler errors) are pinned to the start of the active file.
func Diagnostics(srcErr *ast.SrcError, file uint64, lines *LineIndex) []Diagnostic {
	out := []Diagnostic{}
	if srcErr == nil {
		return out
	}
	for _, e := range srcErr.Errs {
		if e.Loc.File != 0 && e.Loc.File != file {
			continue
		}
		sev := SeverityError
		if e.Warn {
			sev = SeverityWarning
		}
		out = append(out, Diagnostic{
			Range:    locRange(e.Loc, lines),
			Message:  e.Msg,
			Severity: sev,
			Source:   DiagnosticSource,
		})
	}
	return out
}
