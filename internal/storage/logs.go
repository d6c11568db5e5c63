package storage

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	LogExt     = ".log"
	ArchiveExt = ".gz.b64"
)

// LogStore keeps one append-only log per id and rotates them into
// compressed archives.
type LogStore struct {
	dir   string
	now   func() time.Time
	ready atomic.Bool
}

// NewLogStore returns a log store rooted at dir.
func NewLogStore(dir string) *LogStore {
	return &LogStore{dir: dir, now: time.Now}
}

// WithClock replaces the clock used to stamp archives. Tests only.
func (s *LogStore) WithClock(now func() time.Time) *LogStore {
	s.now = now
	return s
}

// Dir returns the root directory.
func (s *LogStore) Dir() string {
	return s.dir
}

// Init creates the log directory if needed.
func (s *LogStore) Init() error {
	if s.ready.Load() {
		return nil
	}

	info, err := os.Stat(s.dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return unexpected("init", s.dir, "%s exists and is not a directory", s.dir)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return wrap("init", s.dir, err)
		}
	default:
		return wrap("init", s.dir, err)
	}

	s.ready.Store(true)
	return nil
}

// Append writes line plus a newline to the active log of id, creating it if
// needed. Appends to distinct ids are independent; appends to the same id
// rely on O_APPEND for atomicity.
func (s *LogStore) Append(id, line string) error {
	if err := s.prepare("append", id); err != nil {
		return err
	}

	f, err := os.OpenFile(s.activePath(id), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return &Error{Code: CodeIO, Op: "append", Key: id, Err: err}
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return &Error{Code: CodeIO, Op: "append", Key: id, Err: err}
	}

	if err := f.Close(); err != nil {
		return &Error{Code: CodeIO, Op: "append", Key: id, Err: err}
	}
	return nil
}

// List returns the sorted ids that have an active log. With includeArchived
// ids that only have archives are included as well.
func (s *LogStore) List(includeArchived bool) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, wrap("list", s.dir, err)
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		switch {
		case strings.HasSuffix(name, LogExt):
			seen[strings.TrimSuffix(name, LogExt)] = struct{}{}
		case includeArchived && strings.HasSuffix(name, ArchiveExt):
			if id, _, ok := parseArchiveName(name); ok {
				seen[id] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Rotate moves the active log of id into a new archive and returns the
// archive file name. The three steps (rename, compress+write, remove temp)
// are not atomic; a crash can leave the temp file behind.
func (s *LogStore) Rotate(id string) (string, error) {
	if err := s.prepare("rotate", id); err != nil {
		return "", err
	}

	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	tempPath := filepath.Join(s.dir, id+"-"+stamp)
	archiveName := id + "-" + stamp + ArchiveExt

	if err := os.Rename(s.activePath(id), tempPath); err != nil {
		return "", wrap("rotate", id, err)
	}

	raw, err := os.ReadFile(tempPath)
	if err != nil {
		return "", wrap("rotate", id, err)
	}

	encoded, err := compress(raw)
	if err != nil {
		return "", &Error{Code: CodeIO, Op: "rotate", Key: id, Err: err}
	}

	out, err := os.OpenFile(filepath.Join(s.dir, archiveName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", wrap("rotate", id, err)
	}
	if err := writeAndClose(out, "rotate", id, encoded); err != nil {
		return "", err
	}

	if err := os.Remove(tempPath); err != nil {
		return "", wrap("rotate", id, err)
	}

	return archiveName, nil
}

// Archives returns the archive file names of id, oldest first.
func (s *LogStore) Archives(id string) ([]string, error) {
	if err := validKey("archives", id); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, wrap("archives", id, err)
	}

	type archive struct {
		name  string
		stamp int64
	}

	var found []archive
	for _, entry := range entries {
		archiveID, stamp, ok := parseArchiveName(entry.Name())
		if !ok || archiveID != id {
			continue
		}
		found = append(found, archive{name: entry.Name(), stamp: stamp})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].stamp < found[j].stamp })

	names := make([]string, len(found))
	for i, a := range found {
		names[i] = a.name
	}
	return names, nil
}

// Decompress returns the plain text of the most recent archive of id.
func (s *LogStore) Decompress(id string) (string, error) {
	archives, err := s.Archives(id)
	if err != nil {
		return "", err
	}
	if len(archives) == 0 {
		return "", &Error{Code: CodeNotFound, Op: "decompress", Key: id}
	}

	encoded, err := os.ReadFile(filepath.Join(s.dir, archives[len(archives)-1]))
	if err != nil {
		return "", wrap("decompress", id, err)
	}

	plain, err := decompress(encoded)
	if err != nil {
		return "", &Error{Code: CodeIO, Op: "decompress", Key: id, Err: err}
	}
	return string(plain), nil
}

func (s *LogStore) prepare(op, id string) error {
	if err := validKey(op, id); err != nil {
		return err
	}
	return s.Init()
}

func (s *LogStore) activePath(id string) string {
	return filepath.Join(s.dir, id+LogExt)
}

// parseArchiveName splits "<id>-<millis>.gz.b64".
func parseArchiveName(name string) (string, int64, bool) {
	if !strings.HasSuffix(name, ArchiveExt) {
		return "", 0, false
	}
	base := strings.TrimSuffix(name, ArchiveExt)

	dash := strings.LastIndex(base, "-")
	if dash <= 0 {
		return "", 0, false
	}

	stamp, err := strconv.ParseInt(base[dash+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return base[:dash], stamp, true
}

func compress(raw []byte) ([]byte, error) {
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(zipped.Len()))
	base64.StdEncoding.Encode(encoded, zipped.Bytes())
	return encoded, nil
}

func decompress(encoded []byte) ([]byte, error) {
	zipped, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return nil, err
	}

	zr, err := gzip.NewReader(bytes.NewReader(zipped))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}
