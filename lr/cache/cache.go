/*
Package cache persists the artifacts built from a syntax, i.e. the scanning
automaton and the parse tables, and reloads them on later runs. Building LALR
tables for a large grammar is expensive, while decoding them is not.

Artifacts are stored per grammar id in a cache root directory:

    c, err := cache.New("/var/cache/myapp")
    artifacts, err := c.Get("java", src)

A stored artifact carries a fingerprint of the rule source and the build
options. If the rules change, the artifact is rebuilt. Unreadable or corrupt
files are logged and rebuilt as well; clients will never see a *CacheError
from Get.

Only the parse tables are decoded ready for use. For the scanner, the token
definitions are stored, and the matcher compiles its automaton on the first
scan after a cache hit.

A Cache may be used from concurrent goroutines. Requests for the same grammar
are collapsed into a single build.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package cache

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cnf/structhash"
	"github.com/npillmayer/lrkit/syntax"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/sync/singleflight"
)

// tracer traces with key 'lrkit.cache'.
func tracer() tracing.Trace {
	return tracing.Select("lrkit.cache")
}

// FormatVersion is the version of the artifact file format. Files with a
// different version are rebuilt.
const FormatVersion = 1

// Suffix is appended to the sanitized grammar id to form a file name.
const Suffix = "Parser.lrt"

// CacheError is reported for artifact files which cannot be read or written.
type CacheError struct {
	Op   string // "read", "decode", "write", "remove"
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CacheError) Unwrap() error {
	return e.Err
}

// Cache stores artifacts in a root directory.
type Cache struct {
	root     string
	disabled bool
	group    singleflight.Group
}

// Option configures a cache.
type Option func(*Cache)

// WithRoot overrides the root directory, if dir is not empty.
func WithRoot(dir string) Option {
	return func(c *Cache) {
		if dir != "" {
			c.root = dir
		}
	}
}

// WithDisabled turns the cache off. Get will build artifacts on every call.
func WithDisabled(off bool) Option {
	return func(c *Cache) {
		c.disabled = off
	}
}

// New creates a cache in directory root, which is created if necessary.
func New(root string, opts ...Option) (*Cache, error) {
	c := &Cache{root: root}
	for _, opt := range opts {
		opt(c)
	}
	if c.disabled {
		return c, nil
	}
	if c.root == "" {
		return nil, fmt.Errorf("cache needs a root directory")
	}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return nil, fmt.Errorf("cache root: %w", err)
	}
	return c, nil
}

// Root returns the cache's root directory.
func (c *Cache) Root() string {
	return c.root
}

// Disabled is true if the cache does not store artifacts.
func (c *Cache) Disabled() bool {
	return c.disabled
}

// Path returns the location of the artifact file for a grammar id.
func (c *Cache) Path(id string) string {
	return filepath.Join(c.root, sanitize(id)+Suffix)
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.') {
			return r
		}
		return '_'
	}, id)
}

// header precedes the artifacts in a cache file.
type header struct {
	Version     int
	ID          string
	Fingerprint string
}

// Fingerprint computes a hash of a syntax together with build options.
func Fingerprint(src syntax.Syntax, opts ...syntax.BuildOption) (string, error) {
	fp := struct {
		Format   int
		Rules    syntax.Syntax
		Settings syntax.Settings
	}{FormatVersion, src, syntax.NewSettings(opts...)}
	return structhash.Hash(fp, 1)
}

// Get returns the artifacts for a grammar id. If a matching artifact file
// exists, it is decoded; otherwise the artifacts are built from src and
// stored. Only errors from building are returned.
func (c *Cache) Get(id string, src syntax.Syntax, opts ...syntax.BuildOption) (*syntax.Artifacts, error) {
	if id == "" {
		return nil, fmt.Errorf("cache needs a grammar id")
	}
	if c.disabled {
		return syntax.Build(src, opts...)
	}
	fp, err := Fingerprint(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("fingerprint for %s: %w", id, err)
	}
	v, err, shared := c.group.Do(id+"@"+fp, func() (interface{}, error) {
		return c.getOrBuild(id, fp, src, opts)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		tracer().Debugf("artifacts for %s shared between callers", id)
	}
	return v.(*syntax.Artifacts), nil
}

func (c *Cache) getOrBuild(id, fp string, src syntax.Syntax, opts []syntax.BuildOption) (*syntax.Artifacts, error) {
	a, err := c.load(id, fp)
	if err == nil {
		tracer().Infof("cache hit for %s", id)
		return a, nil
	}
	var cerr *CacheError
	switch {
	case errors.As(err, &cerr):
		tracer().Errorf("%v; rebuilding", err)
	case errors.Is(err, os.ErrNotExist):
		tracer().Debugf("cache miss for %s", id)
	default:
		tracer().Infof("artifacts for %s are stale: %v", id, err)
	}
	if a, err = syntax.Build(src, opts...); err != nil {
		return nil, err
	}
	if err := c.store(id, fp, a); err != nil {
		tracer().Errorf("%v", err)
	}
	return a, nil
}

var errMismatch = errors.New("header mismatch")

// load reads an artifact file. It returns os.ErrNotExist for a missing file,
// errMismatch for a file built from different input, and a *CacheError for
// unreadable files.
func (c *Cache) load(id, fp string) (*syntax.Artifacts, error) {
	path := c.Path(id)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, &CacheError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()
	dec := gob.NewDecoder(bufio.NewReader(f))
	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, &CacheError{Op: "decode", Path: path, Err: err}
	}
	if h.Version != FormatVersion || h.ID != id || h.Fingerprint != fp {
		return nil, fmt.Errorf("%w: version %d, id %q", errMismatch, h.Version, h.ID)
	}
	a := &syntax.Artifacts{}
	if err := dec.Decode(a); err != nil {
		return nil, &CacheError{Op: "decode", Path: path, Err: err}
	}
	if a.Lexer == nil || a.Tables == nil || a.Tables.Action == nil || a.Tables.Goto == nil {
		return nil, &CacheError{Op: "decode", Path: path, Err: errors.New("incomplete artifacts")}
	}
	return a, nil
}

// store writes an artifact file to a temporary file and renames it.
func (c *Cache) store(id, fp string, a *syntax.Artifacts) error {
	path := c.Path(id)
	tmp, err := os.CreateTemp(c.root, ".lrkit-*.tmp")
	if err != nil {
		return &CacheError{Op: "write", Path: path, Err: err}
	}
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmp.Name())
		return &CacheError{Op: "write", Path: path, Err: err}
	}
	w := bufio.NewWriter(tmp)
	enc := gob.NewEncoder(w)
	if err := enc.Encode(header{Version: FormatVersion, ID: id, Fingerprint: fp}); err != nil {
		return fail(err)
	}
	if err := enc.Encode(a); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &CacheError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &CacheError{Op: "write", Path: path, Err: err}
	}
	tracer().Debugf("stored artifacts for %s in %s", id, path)
	return nil
}

// Invalidate removes the artifact file for a grammar id. It is not an error
// if there is none.
func (c *Cache) Invalidate(id string) error {
	if c.disabled {
		return nil
	}
	err := os.Remove(c.Path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &CacheError{Op: "remove", Path: c.Path(id), Err: err}
	}
	return nil
}
