// Package complete implements first-word tab completion over builtin names
// and the executables of the search path.
package complete

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"
)

// Action tells the line editor how to apply a completion result.
type Action int

const (
	// None means no candidate matched; the editor rings the bell.
	None Action = iota
	// Replace means the buffer must be replaced by Result.Buffer.
	Replace
	// Ring means the set is ambiguous; Result.Buffer may be an extension of
	// the input and the bell is rung.
	Ring
	// List means the ambiguous set must be printed below the prompt.
	List
)

// Result is the outcome of one Tab press.
type Result struct {
	Action     Action
	Buffer     string   // new buffer contents (Replace, Ring)
	Candidates []string // sorted candidate set (Ring, List)
}

// Source provides executable names for completion.
type Source interface {
	Matches(prefix string) []string
}

// Completer tracks consecutive Tab presses across calls. It is not safe for
// concurrent use.
type Completer struct {
	builtins []string
	source   Source

	presses int
	last    []string
}

// New creates a Completer over the given builtin names and executable source.
// A nil source completes builtins only.
func New(builtins []string, source Source) *Completer {
	b := append([]string(nil), builtins...)
	sort.Strings(b)
	return &Completer{builtins: b, source: source}
}

// Reset clears the consecutive Tab press counter. The editor calls it for
// every key other than Tab.
func (c *Completer) Reset() {
	c.presses = 0
	c.last = nil
}

// Candidates returns the sorted, de-duplicated completion set for buffer.
// Only the first word is completed: surrounding whitespace is ignored, and a
// buffer that is blank or has interior whitespace yields no candidates.
func (c *Completer) Candidates(buffer string) []string {
	word := strings.TrimSpace(buffer)
	if word == "" || strings.ContainsAny(word, " \t") {
		return nil
	}
	var out []string
	for _, b := range c.builtins {
		if strings.HasPrefix(b, word) {
			out = append(out, b)
		}
	}
	if c.source != nil {
		out = append(out, c.source.Matches(word)...)
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// Complete handles one Tab press for buffer.
func (c *Completer) Complete(buffer string) Result {
	cands := c.Candidates(buffer)

	switch len(cands) {
	case 0:
		c.Reset()
		return Result{Action: None}
	case 1:
		c.Reset()
		return Result{Action: Replace, Buffer: quoteWord(cands[0]) + " "}
	}

	if c.presses > 0 && slices.Equal(cands, c.last) {
		c.presses++
		return Result{Action: List, Buffer: buffer, Candidates: cands}
	}

	c.presses = 1
	c.last = cands
	next := buffer
	if lcp := LongestCommonPrefix(cands); len(lcp) > len(strings.TrimSpace(buffer)) {
		next = lcp
	}
	return Result{Action: Ring, Buffer: next, Candidates: cands}
}

// LongestCommonPrefix returns the longest string every element of words
// starts with. It returns "" for an empty slice and the word itself for a
// single element.
func LongestCommonPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := words[0]
	for _, w := range words[1:] {
		n := 0
		for n < len(prefix) && n < len(w) && prefix[n] == w[n] {
			n++
		}
		if n < len(prefix) {
			for n > 0 && !utf8.RuneStart(prefix[n]) {
				n--
			}
		}
		prefix = prefix[:n]
		if prefix == "" {
			break
		}
	}
	return prefix
}

// quoteWord quotes name when it contains characters the lexer would split or
// unquote, so the completed line tokenizes back to name.
func quoteWord(name string) string {
	if !strings.ContainsAny(name, " \t'\"\\|") {
		return name
	}
	q, err := syntax.Quote(name, syntax.LangBash)
	if err != nil || strings.HasPrefix(q, "$'") {
		return name
	}
	return q
}
