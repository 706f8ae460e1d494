// Package catalog loads the closed set of product categories.
//
// The catalog is a static JSON resource shaped as
//
//	{"productCategory": {"<key>": "<label>", ...}}
//
// Keys are what products store; labels are what people see. File order is
// preserved so dropdowns and listings render categories the way the file
// lists them.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// RootKey is the top-level member holding the key -> label mapping.
const RootKey = "productCategory"

// ErrConfig is matched by every ConfigError.
var ErrConfig = errors.New("catalog: invalid configuration")

// ConfigError reports a missing or malformed catalog resource.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("catalog: %v", e.Err)
	}
	return fmt.Sprintf("catalog: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}

// Entry is one category.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Catalog is an immutable ordered key -> label mapping.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// New builds a catalog from entries in the given order.
func New(entries ...Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, &ConfigError{Err: errors.New("no categories defined")}
	}
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, &ConfigError{Err: errors.New("category key must not be empty")}
		}
		if _, dup := c.index[e.Key]; dup {
			return nil, &ConfigError{Err: fmt.Errorf("duplicate category key %q", e.Key)}
		}
		c.index[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Parse decodes a catalog document. The document must be a single object with
// exactly one root member.
func Parse(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, &ConfigError{Err: err}
	}

	var entries []Entry
	found := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		if tok != RootKey {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, &ConfigError{Err: err}
			}
			continue
		}
		if found {
			return nil, &ConfigError{Err: fmt.Errorf("duplicate %q object", RootKey)}
		}
		if entries, err = decodeEntries(dec); err != nil {
			return nil, &ConfigError{Err: err}
		}
		found = true
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, &ConfigError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Err: errors.New("unexpected data after catalog object")}
	}
	if !found {
		return nil, &ConfigError{Err: fmt.Errorf("missing %q object", RootKey)}
	}
	return New(entries...)
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	c, err := Parse(data)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Keys returns category keys in file order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the ordered entries.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Contains reports whether key is a known category.
func (c *Catalog) Contains(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Label returns the display label for key.
func (c *Catalog) Label(key string) (string, bool) {
	i, ok := c.index[key]
	if !ok {
		return "", false
	}
	return c.entries[i].Label, true
}

// MarshalJSON encodes the mapping as a JSON object in catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a bare key -> label object, keeping member order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	entries, err := decodeEntries(json.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return &ConfigError{Err: err}
	}
	parsed, err := New(entries...)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

func decodeEntries(dec *json.Decoder) ([]Entry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("%s: %w", RootKey, err)
	}
	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var label string
		if err := dec.Decode(&label); err != nil {
			return nil, fmt.Errorf("label for %q must be a string", key)
		}
		entries = append(entries, Entry{Key: key, Label: label})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// Loader caches one catalog per process. The file is read on first use and
// only read again after Invalidate.
type Loader struct {
	path string

	mu     sync.Mutex
	cached *Catalog
}

// NewLoader creates a Loader for the catalog file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the catalog file location.
func (l *Loader) Path() string {
	return l.path
}

// Catalog returns the cached catalog, loading it if needed. Failed loads are
// not cached.
func (l *Loader) Catalog() (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}
	c, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.cached = c
	return c, nil
}

// Reload reads the file again and replaces the cached catalog. On failure the
// previous catalog stays in use.
func (l *Loader) Reload() (*Catalog, error) {
	c, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cached = c
	l.mu.Unlock()
	return c, nil
}

// Invalidate drops the cached catalog.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}
