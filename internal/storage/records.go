package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

const recordExt = ".json"

// Store is the root of the record store. Collections are created on demand
// and shared, so every caller of Collection("checks") sees the same handle.
type Store struct {
	root    string
	hashKey []byte

	mutex       sync.Mutex
	collections map[string]*Collection
}

// NewStore returns a store rooted at dir. hashSecret keys Hash.
func NewStore(dir string, hashSecret string) *Store {
	return &Store{
		root:        dir,
		hashKey:     []byte(hashSecret),
		collections: make(map[string]*Collection),
	}
}

// Collection returns the named collection, creating the handle if needed.
// No I/O happens until the first operation.
func (s *Store) Collection(name string) *Collection {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if c, ok := s.collections[name]; ok {
		return c
	}

	c := &Collection{
		name: name,
		dir:  filepath.Join(s.root, name),
	}
	s.collections[name] = c
	return c
}

// Hash returns the hex HMAC-SHA256 of secret under the store's key.
func (s *Store) Hash(secret string) string {
	mac := hmac.New(sha256.New, s.hashKey)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Collection is a directory of JSON records keyed by file name.
type Collection struct {
	name  string
	dir   string
	ready atomic.Bool
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Init creates the backing directory if needed. It fails with CodeUnexpected
// when the path exists but is not a directory.
func (c *Collection) Init() error {
	if c.ready.Load() {
		return nil
	}

	info, err := os.Stat(c.dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return unexpected("init", c.name, "%s exists and is not a directory", c.dir)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return wrap("init", c.name, err)
		}
	default:
		return wrap("init", c.name, err)
	}

	c.ready.Store(true)
	return nil
}

// Create persists value under key. It fails with CodeAlreadyExists if the
// record is already present.
func (c *Collection) Create(key string, value any) error {
	path, err := c.prepare("create", key)
	if err != nil {
		return err
	}

	data, err := encode(value)
	if err != nil {
		return &Error{Code: CodeIO, Op: "create", Key: key, Err: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return wrap("create", key, err)
	}

	return writeAndClose(f, "create", key, data)
}

// Read decodes the record under key into dst.
func (c *Collection) Read(key string, dst any) error {
	path, err := c.prepare("read", key)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return wrap("read", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return &Error{Code: CodeIO, Op: "read", Key: key, Err: err}
	}
	return nil
}

// Update overwrites an existing record. There is no upsert: a missing record
// fails with CodeNotFound. The file is truncated before the write, so a crash
// in between leaves a short record behind.
func (c *Collection) Update(key string, value any) error {
	path, err := c.prepare("update", key)
	if err != nil {
		return err
	}

	data, err := encode(value)
	if err != nil {
		return &Error{Code: CodeIO, Op: "update", Key: key, Err: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return wrap("update", key, err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return wrap("update", key, err)
	}

	return writeAndClose(f, "update", key, data)
}

// Delete removes the record under key.
func (c *Collection) Delete(key string) error {
	path, err := c.prepare("delete", key)
	if err != nil {
		return err
	}

	return wrap("delete", key, os.Remove(path))
}

// Exists reports whether a record is stored under key. Only failures other
// than absence are returned as errors.
func (c *Collection) Exists(key string) (bool, error) {
	path, err := c.prepare("exists", key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, wrap("exists", key, err)
}

// List returns the sorted keys of every record in the collection.
func (c *Collection) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, wrap("list", c.name, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(entry.Name(), recordExt))
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *Collection) prepare(op, key string) (string, error) {
	if err := validKey(op, key); err != nil {
		return "", err
	}
	if err := c.Init(); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, key+recordExt), nil
}

func validKey(op, key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return unexpected(op, key, "invalid key")
	}
	return nil
}

func encode(value any) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}

func writeAndClose(f *os.File, op, key string, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return wrap(op, key, err)
	}
	return wrap(op, key, f.Close())
}
