package complete

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultListingTTL bounds how long a directory listing is reused when the
// directory's modification time has not changed.
const DefaultListingTTL = 30 * time.Second

// listing is the cached set of executables found in one PATH directory.
type listing struct {
	modTime time.Time
	names   []string // sorted executable names
}

// PathIndex indexes the executables of the search path. It answers both
// "first match" lookups for spawning and prefix queries for completion,
// applying the same permission check to both. Only prefix queries are served
// from cached listings.
type PathIndex struct {
	dirs  func() []string
	cache *ttlcache.Cache[string, *listing]
}

// SearchPath splits $PATH into its directories. An empty element names the
// current directory.
func SearchPath() []string {
	path := os.Getenv("PATH")
	if path == "" {
		return nil
	}
	dirs := filepath.SplitList(path)
	for i, d := range dirs {
		if d == "" {
			dirs[i] = "."
		}
	}
	return dirs
}

// NewPathIndex creates an index over the directories returned by dirs, which
// is consulted on every query. A nil dirs uses SearchPath.
func NewPathIndex(dirs func() []string, ttl time.Duration) *PathIndex {
	if dirs == nil {
		dirs = SearchPath
	}
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	c := ttlcache.New[string, *listing](
		ttlcache.WithTTL[string, *listing](ttl),
		ttlcache.WithDisableTouchOnHit[string, *listing](),
	)
	go c.Start()
	return &PathIndex{dirs: dirs, cache: c}
}

// Close stops the cache expiration loop.
func (p *PathIndex) Close() {
	p.cache.Stop()
}

// Invalidate drops every cached listing.
func (p *PathIndex) Invalidate() {
	p.cache.DeleteAll()
}

// Lookup returns the full path of the first executable called name, searching
// the directories in order. A name containing a slash is checked as a path
// directly. Lookups stat the candidates on every call and never use the
// cached listings, so permission changes take effect immediately.
func (p *PathIndex) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.ContainsRune(name, '/') {
		if info, err := os.Stat(name); err == nil && isExecutable(info) {
			return name, true
		}
		return "", false
	}
	for _, dir := range p.dirs() {
		full := joinPath(dir, name)
		if info, err := os.Stat(full); err == nil && isExecutable(info) {
			return full, true
		}
	}
	return "", false
}

// Matches returns every executable name on the search path that starts with
// prefix, sorted and without duplicates.
func (p *PathIndex) Matches(prefix string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, dir := range p.dirs() {
		names := p.listing(dir).names
		i := sort.SearchStrings(names, prefix)
		for ; i < len(names) && strings.HasPrefix(names[i], prefix); i++ {
			if !seen[names[i]] {
				seen[names[i]] = true
				out = append(out, names[i])
			}
		}
	}
	sort.Strings(out)
	return out
}

// listing returns the cached listing for dir, rescanning when the entry is
// missing, expired, or older than the directory itself.
func (p *PathIndex) listing(dir string) *listing {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &listing{}
	}
	if item := p.cache.Get(dir); item != nil {
		if l := item.Value(); l.modTime.Equal(info.ModTime()) {
			return l
		}
	}

	l := scanDir(dir)
	l.modTime = info.ModTime()
	p.cache.Set(dir, l, ttlcache.DefaultTTL)
	slog.Debug("indexed search path directory", "dir", dir, "executables", len(l.names))
	return l
}

// scanDir lists the executables in dir.
func scanDir(dir string) *listing {
	l := &listing{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return l
	}
	for _, entry := range entries {
		full := joinPath(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// Follow links so the target's mode decides.
			if info, err = os.Stat(full); err != nil {
				continue
			}
		}
		if !isExecutable(info) {
			continue
		}
		l.names = append(l.names, entry.Name())
	}
	sort.Strings(l.names)
	return l
}

// joinPath joins dir and name, keeping a "./" prefix so the result is never
// searched on PATH again.
func joinPath(dir, name string) string {
	full := filepath.Join(dir, name)
	if !strings.ContainsRune(full, filepath.Separator) {
		full = "." + string(filepath.Separator) + full
	}
	return full
}

// isExecutable reports whether info describes a non-directory with at least
// one execute permission bit.
func isExecutable(info os.FileInfo) bool {
	return !info.IsDir() && info.Mode().Perm()&0o111 != 0
}
