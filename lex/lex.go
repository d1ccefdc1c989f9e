// Package lex turns a committed command line into argument tokens.
// It resolves single quotes, double quotes and backslash escapes the way a
// POSIX shell does for literal words; it performs no expansion of any kind.
package lex

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyStage is returned by SplitPipeline when a pipe separator has no
// command on one of its sides.
var ErrEmptyStage = errors.New("syntax error near unexpected token `|'")

// scanner holds the three flags of a single left-to-right pass.
type scanner struct {
	single bool // inside '...'
	double bool // inside "..."
	escape bool // previous rune was an unconsumed backslash
}

// escapableInDouble lists the runes a backslash may escape inside double quotes.
func escapableInDouble(r rune) bool {
	switch r {
	case '$', '`', '"', '\\', '\n':
		return true
	}
	return false
}

// quoted reports whether the scanner is inside any quote or escape.
func (s *scanner) quoted() bool {
	return s.single || s.double || s.escape
}

// step advances the scanner over r and returns the text r contributes to the
// current token, plus whether r was an unquoted word separator.
func (s *scanner) step(r rune) (text string, sep bool) {
	switch {
	case s.single:
		if r == '\'' {
			s.single = false
			return "", false
		}
		return string(r), false

	case s.escape:
		s.escape = false
		if s.double && !escapableInDouble(r) {
			return `\` + string(r), false
		}
		return string(r), false

	case r == '\\':
		s.escape = true
		return "", false

	case r == '\'' && !s.double:
		s.single = true
		return "", false

	case r == '"':
		s.double = !s.double
		return "", false

	case unicode.IsSpace(r) && !s.double:
		return "", true
	}
	return string(r), false
}

// Tokenize splits line into fully resolved argument tokens.
// Unterminated quotes and a trailing backslash are not errors: the scan
// simply ends, and a trailing backslash contributes nothing.
func Tokenize(line string) []string {
	var (
		s      scanner
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		text, sep := s.step(r)
		if sep {
			flush()
			continue
		}
		cur.WriteString(text)
	}
	flush()
	return tokens
}

// HasPipe reports whether line contains a pipe separator outside quotes and
// not preceded by an escaping backslash.
func HasPipe(line string) bool {
	var s scanner
	for _, r := range line {
		if r == '|' && !s.quoted() {
			return true
		}
		s.step(r)
	}
	return false
}

// SplitPipeline splits line on unquoted, unescaped pipe separators and returns
// the raw, trimmed text of every stage. Quotes and escapes are kept intact so
// each stage can be tokenized on its own.
func SplitPipeline(line string) ([]string, error) {
	var (
		s      scanner
		stages []string
		start  int
	)
	for i, r := range line {
		if r == '|' && !s.quoted() {
			stages = append(stages, strings.TrimSpace(line[start:i]))
			start = i + 1
			continue
		}
		s.step(r)
	}
	stages = append(stages, strings.TrimSpace(line[start:]))

	for _, st := range stages {
		if st == "" {
			return nil, ErrEmptyStage
		}
	}
	return stages, nil
}
