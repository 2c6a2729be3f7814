package ast

import (
	"encoding/json"
	"fmt"
)

// Token is one lexer token as emitted by `src2json --lexer`.
type Token struct {
	Tag   TokenTag `json:"tag"`
	Token string   `json:"token"`
	Loc   Loc      `json:"loc"`
}

// SrcErrorEntry is one compiler diagnostic.
type SrcErrorEntry struct {
	Loc  Loc    `json:"loc"`
	Msg  string `json:"msg"`
	File string `json:"file"`
	Src  string `json:"src"`
	Warn bool   `json:"warn"`
}

// SrcError is the structured diagnostic list carried by compiler output.
type SrcError struct {
	Errs []SrcErrorEntry `json:"errs"`
}

// HasErrors reports whether at least one entry is not a warning.
func (e *SrcError) HasErrors() bool {
	if e == nil {
		return false
	}
	for _, entry := range e.Errs {
		if !entry.Warn {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts either the structured {"errs": [...]} form or a
// bare string, which older compiler builds emit for fatal errors.
func (e *SrcError) UnmarshalJSON(data []byte) error {
	var msg string
	if err := json.Unmarshal(data, &msg); err == nil {
		e.Errs = []SrcErrorEntry{{Msg: msg}}
		return nil
	}
	type plain SrcError
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode src error: %w", err)
	}
	*e = SrcError(p)
	return nil
}

// TokenFile is the envelope produced by the lexer.
type TokenFile struct {
	Tokens []Token   `json:"tokens"`
	Error  *SrcError `json:"error"`
	Files  []string  `json:"file,omitempty"`
}

// DecodeTokens parses a lexer envelope.
func DecodeTokens(data []byte) (*TokenFile, error) {
	var tf TokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	return &tf, nil
}
