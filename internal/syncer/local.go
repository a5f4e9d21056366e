package syncer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mindcanvas/internal/mindmap"
)

// LocalStore caches maps on this machine. Maps created while offline live
// only here until the user signs in.
type LocalStore interface {
	LoadAll() ([]mindmap.MindMap, error)
	Put(m mindmap.MindMap) error
	Delete(id string) error
}

// FileStore keeps one JSON file per map in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, id)
	return filepath.Join(s.dir, safe+".json")
}

// LoadAll returns every readable map, most recently updated first. Files
// that fail to parse are skipped.
func (s *FileStore) LoadAll() ([]mindmap.MindMap, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache directory: %w", err)
	}

	var out []mindmap.MindMap
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var m mindmap.MindMap
		if err := json.Unmarshal(raw, &m); err != nil || m.ID == "" {
			continue
		}
		out = append(out, mindmap.Sanitize(m))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Put writes m, replacing any earlier copy.
func (s *FileStore) Put(m mindmap.MindMap) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode map %s: %w", m.ID, err)
	}
	tmp, err := os.CreateTemp(s.dir, ".map-*")
	if err != nil {
		return fmt.Errorf("write map %s: %w", m.ID, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write map %s: %w", m.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write map %s: %w", m.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(m.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write map %s: %w", m.ID, err)
	}
	return nil
}

// Delete removes the copy of id. A missing file is not an error.
func (s *FileStore) Delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete map %s: %w", id, err)
	}
	return nil
}
