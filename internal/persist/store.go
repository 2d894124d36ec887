package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tilecentric/tilecentric/internal/core/ecs"
	"github.com/tilecentric/tilecentric/internal/lineage"
	"github.com/tilecentric/tilecentric/internal/world"
)

// ErrExists is returned by Save when a different snapshot already occupies the id's file.
var ErrExists = errors.New("state file already exists with different content")

// Store is the directory of persisted snapshots, one file per state named
// after its lineage id. Files are never rewritten once saved.
type Store struct {
	dir   string
	alloc *ecs.Allocator
	log   *zap.Logger
}

// NewStore opens the store at dir. Loaded entity ids re-seed alloc.
func NewStore(dir string, alloc *ecs.Allocator, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if alloc == nil {
		alloc = ecs.NewAllocator()
	}
	return &Store{dir: dir, alloc: alloc, log: log}
}

func (s *Store) Dir() string { return s.dir }

// Path returns the file path for id.
func (s *Store) Path(id lineage.ID) string {
	return filepath.Join(s.dir, id.String()+lineage.Ext)
}

// Save writes state as <id>.json, creating the directory if needed.
// Saving identical bytes twice is a no-op.
func (s *Store) Save(st *world.State) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create store %s: %w", s.dir, err)
	}
	data, err := Encode(st)
	if err != nil {
		return "", err
	}
	path := s.Path(st.Info().ID)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrExists, path)
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("stat state %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write state %s: %w", path, err)
	}
	info := st.Info()
	s.log.Info("state saved",
		zap.String("id", info.ID.String()),
		zap.String("parent_id", info.ParentID.String()),
		zap.Int("entities", st.Len()),
		zap.String("fingerprint", fmt.Sprintf("%016x", st.Fingerprint())),
	)
	return path, nil
}

// Load reads the snapshot at path.
func (s *Store) Load(path string) (*world.State, error) {
	return Read(path, s.alloc)
}

// LoadID reads the snapshot saved under id.
func (s *Store) LoadID(id lineage.ID) (*world.State, error) {
	return s.Load(s.Path(id))
}

// Latest returns the path of the most recent snapshot.
func (s *Store) Latest() (string, error) {
	e, err := lineage.Latest(s.dir)
	if err != nil {
		return "", err
	}
	return e.Path, nil
}

// Index builds the lineage arena from every snapshot header in the store.
func (s *Store) Index() (*lineage.Index, error) {
	entries, err := lineage.Scan(s.dir)
	if err != nil {
		return nil, err
	}
	x := lineage.NewIndex()
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, fmt.Errorf("read state %s: %w", e.Path, err)
		}
		info, err := DecodeInfo(data)
		if err != nil {
			return nil, fmt.Errorf("load state %s: %w", e.Path, err)
		}
		x.Add(info.ID, info.ParentID)
	}
	s.log.Debug("lineage index built", zap.Int("states", len(entries)))
	return x, nil
}
