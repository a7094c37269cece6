// Copyright 2026 The Assetforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package directive implements the default dependency-declaration
// preprocessor: a comment parser that lifts `require`, `stub`, and
// `depend_on` lines out of an asset's header comment into pipeline
// metadata.
//
// Directives live in the header: the run of comment and blank lines
// at the top of the file. A comment line whose marker is immediately
// followed by `=` is a directive line; it is consumed. Everything
// else, including ordinary header comments and any directive-looking
// text after the first line of code, passes through untouched.
//
// Recognized comment markers are `//=`, `#=`, `/*=` (with a closing
// `*/` on the same line), and `*=` inside a block comment.
package directive

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/assetforge/assetforge/lib/processor"
)

// Error describes a malformed or unrecognized directive, with the
// 1-based source line it was found on.
type Error struct {
	Line      int
	Directive string
	Message   string
}

func (e *Error) Error() string {
	if e.Directive == "" {
		return fmt.Sprintf("directive on line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("directive %q on line %d: %s", e.Directive, e.Line, e.Message)
}

// Preprocessor implements [processor.Processor]. The zero value is
// ready to use; New exists for symmetry with registration call sites.
type Preprocessor struct{}

// New returns a directive preprocessor.
func New() *Preprocessor {
	return &Preprocessor{}
}

// Name identifies the preprocessor in pipeline errors.
func (p *Preprocessor) Name() string {
	return "directive preprocessor"
}

// Process parses the header directives out of ctx.Data. Directive
// lines are removed from the body; their arguments accumulate into
// the result's RequiredPaths, StubbedAssets, and DependencyPaths in
// declaration order.
func (p *Preprocessor) Process(ctx *processor.Context) (*processor.Result, error) {
	result := &processor.Result{}
	var body bytes.Buffer

	inHeader := true
	inBlockComment := false
	lineNumber := 0

	scanner := bufio.NewScanner(bytes.NewReader(ctx.Data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lineNumber++

		if !inHeader {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}

		directiveText, isComment, stillInBlock := classify(line, inBlockComment)
		inBlockComment = stillInBlock
		if !isComment && strings.TrimSpace(line) != "" {
			// First line of code ends the header.
			inHeader = false
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}
		if directiveText == "" {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}

		if err := p.apply(result, directiveText, lineNumber); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", ctx.Filename, err)
	}

	// The scanner strips the final newline; restore the original
	// ending for bodies that did not end in one.
	data := body.Bytes()
	if len(data) > 0 && !bytes.HasSuffix(ctx.Data, []byte("\n")) {
		data = data[:len(data)-1]
	}
	result.Data = data
	return result, nil
}

// apply dispatches one parsed directive line ("require app.js") into
// the accumulating result.
func (p *Preprocessor) apply(result *processor.Result, text string, line int) error {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return &Error{Line: line, Message: "empty directive"}
	}
	name := fields[0]
	if len(fields) != 2 {
		return &Error{Line: line, Directive: name, Message: "expected exactly one path argument"}
	}
	path := fields[1]

	switch name {
	case "require":
		result.RequiredPaths = append(result.RequiredPaths, path)
	case "stub":
		result.StubbedAssets = append(result.StubbedAssets, path)
	case "depend_on":
		result.DependencyPaths = append(result.DependencyPaths, path)
	default:
		return &Error{Line: line, Directive: name, Message: "unknown directive"}
	}
	return nil
}

// classify decides what a header line is: the directive text if the
// line is a directive, whether the line is a comment at all, and
// whether a block comment continues past it.
func classify(line string, inBlockComment bool) (directive string, isComment, stillInBlock bool) {
	trimmed := strings.TrimSpace(line)

	if inBlockComment {
		closed := strings.Contains(trimmed, "*/")
		if rest, found := strings.CutPrefix(trimmed, "*="); found {
			rest = strings.TrimSuffix(rest, "*/")
			return strings.TrimSpace(rest), true, !closed
		}
		return "", true, !closed
	}

	switch {
	case strings.HasPrefix(trimmed, "//"):
		if rest, found := strings.CutPrefix(trimmed, "//="); found {
			return strings.TrimSpace(rest), true, false
		}
		return "", true, false
	case strings.HasPrefix(trimmed, "#"):
		if rest, found := strings.CutPrefix(trimmed, "#="); found {
			return strings.TrimSpace(rest), true, false
		}
		return "", true, false
	case strings.HasPrefix(trimmed, "/*"):
		closed := strings.Contains(trimmed, "*/")
		if rest, found := strings.CutPrefix(trimmed, "/*="); found {
			rest = strings.TrimSuffix(rest, "*/")
			return strings.TrimSpace(rest), true, !closed
		}
		return "", true, !closed
	}
	return "", false, false
}

var _ processor.Processor = (*Preprocessor)(nil)
