// Package cache holds scrobbles that could not be submitted, durably,
// until the caller manages to submit them elsewhere.
package cache

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scrobz/scrobz/internal/logging"
	"github.com/scrobz/scrobz/internal/scrobble"
)

const (
	defaultProduct = "scrobz"
	schemaVersion  = "2"
	xmlHeader      = "<?xml version='1.0' encoding='utf-8'?>\n"
)

// ErrNoUsername is returned by Open when the username is empty.
var ErrNoUsername = errors.New("username is required")

// Cache is an ordered, durable list of scrobbles pending submission
// for one user. Every Add and Remove rewrites the backing file before
// returning, so in-memory state and disk never drift. A Cache is not
// safe for concurrent use.
type Cache struct {
	username string
	path     string
	product  string
	tracks   []scrobble.Track
	log      *slog.Logger
}

// Rejection pairs a refused candidate with the reason it was refused.
type Rejection struct {
	Track  scrobble.Track
	Reason scrobble.Invalidity
}

// Open creates a cache for username, loading whatever was persisted by
// an earlier run. dir is where the cache file lives; when empty the
// per-user state directory is used. A missing or unreadable file is a
// normal empty cache, never an error; Open fails only when username is
// empty or the directory cannot be resolved.
func Open(username, dir string) (*Cache, error) {
	if username == "" {
		return nil, ErrNoUsername
	}
	if dir == "" {
		var err error
		dir, err = logging.StateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{
		username: username,
		path:     filepath.Join(dir, username+"_subs_cache.xml"),
		product:  defaultProduct,
		log:      slog.Default(),
	}
	c.Reload()
	return c, nil
}

// SetLogger replaces the logger used to report refused candidates.
func (c *Cache) SetLogger(l *slog.Logger) {
	if l != nil {
		c.log = l
	}
}

// SetProduct sets the application name written into the cache file's
// root element. Metadata only; ignored on load.
func (c *Cache) SetProduct(name string) {
	if name != "" {
		c.product = name
	}
}

// Add runs each candidate through the admission rules independently.
// Inadmissible tracks are logged, collected into the returned slice
// and dropped; a zero-value placeholder is dropped silently. Survivors
// are appended in input order and the whole batch is persisted with a
// single write. The returned error reports only that write; the
// in-memory list is updated either way.
func (c *Cache) Add(tracks []scrobble.Track) ([]Rejection, error) {
	var rejected []Rejection
	for _, t := range tracks {
		if reason, ok := scrobble.Classify(t); !ok {
			c.log.Warn("refusing to cache scrobble",
				slog.String("reason", reason.String()),
				slog.String("artist", t.Artist),
				slog.String("title", t.Title))
			rejected = append(rejected, Rejection{Track: t, Reason: reason})
			continue
		}
		if t.IsZero() {
			c.log.Debug("will not cache an empty track")
			continue
		}
		c.tracks = append(c.tracks, t)
	}
	return rejected, c.persist()
}

// Remove deletes every cached occurrence that is value-equal to any
// element of toRemove. Multiset semantics: a track cached twice and
// listed once is removed twice.
//
// Remove returns the number of scrobbles REMAINING in the cache, not
// the number removed. Long-standing documented behavior; do not treat
// the result as a removal count.
func (c *Cache) Remove(toRemove []scrobble.Track) (int, error) {
	kept := c.tracks[:0]
	for _, have := range c.tracks {
		if !contains(toRemove, have) {
			kept = append(kept, have)
		}
	}
	c.tracks = kept
	return len(c.tracks), c.persist()
}

func contains(tracks []scrobble.Track, t scrobble.Track) bool {
	for _, o := range tracks {
		if t.Equal(o) {
			return true
		}
	}
	return false
}

// Tracks returns a snapshot of the pending scrobbles in insertion
// order. Mutating the result does not affect the cache.
func (c *Cache) Tracks() []scrobble.Track {
	out := make([]scrobble.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

func (c *Cache) Len() int { return len(c.tracks) }

// Path returns the location of the backing file.
func (c *Cache) Path() string { return c.path }

// Username returns the owner of this cache.
func (c *Cache) Username() string { return c.username }

// Clone returns an independent copy of the in-memory state sharing the
// same path. Disk is neither read nor written.
func (c *Cache) Clone() *Cache {
	dup := *c
	dup.tracks = make([]scrobble.Track, len(c.tracks))
	copy(dup.tracks, c.tracks)
	return &dup
}

// document is the on-disk shape of the cache file.
type document struct {
	XMLName xml.Name         `xml:"submissions"`
	Product string           `xml:"product,attr"`
	Version string           `xml:"version,attr"`
	Tracks  []scrobble.Track `xml:"track"`
}

// rawDocument keeps each child of the root as unparsed markup so a
// single broken entry cannot take the rest of the file down with it.
type rawDocument struct {
	XMLName xml.Name  `xml:"submissions"`
	Nodes   []rawNode `xml:",any"`
}

type rawNode struct {
	XMLName xml.Name
	Inner   string `xml:",innerxml"`
}

// Reload replaces the in-memory list with whatever the backing file
// holds. Missing or malformed files load as empty; entries that fail
// to parse individually are skipped.
func (c *Cache) Reload() {
	c.tracks = nil

	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}

	var doc rawDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return
	}
	for _, n := range doc.Nodes {
		if n.XMLName.Local != "track" {
			continue
		}
		var t scrobble.Track
		if err := xml.Unmarshal([]byte("<track>"+n.Inner+"</track>"), &t); err != nil {
			c.log.Warn("skipping unparsable cached scrobble", slog.String("err", err.Error()))
			continue
		}
		c.tracks = append(c.tracks, t)
	}
}

// persist rewrites the backing file to match the in-memory list. An
// empty cache is represented by file absence, never by an empty
// <submissions/> element. The file is written to a temp path and
// renamed into place so readers never observe a truncated document.
func (c *Cache) persist() error {
	if len(c.tracks) == 0 {
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove cache file: %w", err)
		}
		return nil
	}

	doc := document{
		Product: c.product,
		Version: schemaVersion,
		Tracks:  c.tracks,
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".subs_cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	_, werr := tmp.WriteString(xmlHeader + string(body) + "\n")
	if werr == nil {
		// CreateTemp makes the file 0600; the cache is plain user
		// data and keeps conventional permissions.
		werr = tmp.Chmod(0o644)
	}
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("write cache file: %w", werr)
		}
		return fmt.Errorf("write cache file: %w", cerr)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
