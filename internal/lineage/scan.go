package lineage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Ext is the snapshot file suffix.
const Ext = ".json"

// ErrNoStates is returned when a store directory holds no snapshot files.
var ErrNoStates = errors.New("no game states found")

// Entry is a snapshot file whose stem parses as "<index>_<token>".
type Entry struct {
	ID    ID
	Index int64
	Token int64
	Path  string
}

// Less orders entries by index, breaking ties by token.
func (e Entry) Less(o Entry) bool {
	if e.Index != o.Index {
		return e.Index < o.Index
	}
	return e.Token < o.Token
}

// ParseEntry parses a file stem. Both halves must be integers and the index
// non-negative; anything else is not a snapshot name.
func ParseEntry(stem string) (index, token int64, ok bool) {
	head, tail, found := strings.Cut(stem, "_")
	if !found {
		return 0, 0, false
	}
	idx, err := strconv.ParseInt(head, 10, 64)
	if err != nil || idx < 0 {
		return 0, 0, false
	}
	tok, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return idx, tok, true
}

// Scan lists the snapshot entries in dir, oldest first. Files that do not
// match the naming scheme are ignored. A missing directory yields no entries.
func Scan(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan store %s: %w", dir, err)
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || filepath.Ext(name) != Ext {
			continue
		}
		stem := strings.TrimSuffix(name, Ext)
		idx, tok, ok := ParseEntry(stem)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			ID:    ID(stem),
			Index: idx,
			Token: tok,
			Path:  filepath.Join(dir, name),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
	return entries, nil
}

// Latest returns the entry with the greatest (index, token) in dir.
func Latest(dir string) (Entry, error) {
	entries, err := Scan(dir)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w in: %s", ErrNoStates, dir)
	}
	return entries[len(entries)-1], nil
}
