// Package history keeps the session's command history: an append-only list
// of committed lines with 1-based display indices, file persistence, and a
// recall cursor for arrow-key navigation.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// Store is an append-only list of committed command lines.
type Store struct {
	entries []string
	flushed int // entries already written by AppendNew or Save
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Clone returns an independent copy of s.
func (s *Store) Clone() *Store {
	return &Store{entries: s.Entries(), flushed: s.flushed}
}

// Record appends line.
func (s *Store) Record(line string) {
	s.entries = append(s.entries, line)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entry returns the entry at zero-based position i.
func (s *Store) Entry(i int) string {
	return s.entries[i]
}

// Entries returns a copy of every entry, oldest first.
func (s *Store) Entries() []string {
	return append([]string(nil), s.entries...)
}

// List writes entries with their 1-based indices. A positive limit restricts
// the output to the last limit entries; indices stay those of the full list.
func (s *Store) List(w io.Writer, limit int) error {
	start := 0
	if limit > 0 && limit < len(s.entries) {
		start = len(s.entries) - limit
	}
	for i := start; i < len(s.entries); i++ {
		if _, err := fmt.Fprintf(w, "%5d  %s\n", i+1, s.entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Load appends every non-blank line of the file at path, in order.
func (s *Store) Load(path string) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	s.appendParsed(lines)
	return nil
}

// LoadTail appends the last n non-blank lines of the file at path.
// A non-positive n loads the whole file.
func (s *Store) LoadTail(path string, n int) error {
	if n <= 0 {
		return s.Load(path)
	}
	lines, err := readLastLines(path, n)
	if err != nil {
		return err
	}
	s.appendParsed(lines)
	return nil
}

// appendParsed adds file lines as entries. When nothing recorded is pending
// an AppendNew, the loaded entries count as already written.
func (s *Store) appendParsed(lines []string) {
	synced := s.flushed == len(s.entries)
	defer func() {
		if synced {
			s.flushed = len(s.entries)
		}
	}()
	for _, line := range lines {
		if cmd := parseHistoryLine(line); cmd != "" {
			s.entries = append(s.entries, cmd)
		}
	}
}

// Save replaces the file at path with every entry, one per line.
func (s *Store) Save(path string) error {
	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	if err := renameio.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return err
	}
	s.flushed = len(s.entries)
	return nil
}

// AppendNew appends to the file at path the entries recorded since the last
// AppendNew or Save, creating the file if needed.
func (s *Store) AppendNew(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range s.entries[s.flushed:] {
		w.WriteString(e)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.flushed = len(s.entries)
	return nil
}

// parseHistoryLine strips the zsh extended history prefix
// (": <timestamp>:<duration>;") and surrounding whitespace.
func parseHistoryLine(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ": ") {
		if idx := strings.Index(line, ";"); idx != -1 {
			return strings.TrimSpace(line[idx+1:])
		}
	}
	return line
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// readLastLines returns at most the last n lines of the file at path,
// seeking near the end first so large history files are not read whole.
func readLastLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// Estimate 100 bytes per line; fall back to a full read when short.
	estimated := int64(n) * 100
	if estimated < info.Size() {
		if _, err := f.Seek(-estimated, io.SeekEnd); err == nil {
			reader := bufio.NewReader(f)
			reader.ReadString('\n') // partial first line
			var lines []string
			scanner := bufio.NewScanner(reader)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if scanner.Err() == nil && len(lines) >= n {
				return lines[len(lines)-n:], nil
			}
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
