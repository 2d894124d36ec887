package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tilecentric/tilecentric/internal/lineage"
	"github.com/tilecentric/tilecentric/internal/world"
)

// LineageRow is one persisted state as mirrored into PostgreSQL.
type LineageRow struct {
	ID          lineage.ID
	ParentID    lineage.ID // empty for roots
	Index       int64
	Token       int64
	Entities    int
	Fingerprint uint64
	Path        string
	CreatedAt   time.Time
}

// RowFor builds the mirror row for a state saved at path.
func RowFor(s *world.State, path string) (LineageRow, error) {
	info := s.Info()
	idx, tok, ok := lineage.ParseEntry(info.ID.String())
	if !ok {
		return LineageRow{}, fmt.Errorf("state id %q is not a store name", info.ID)
	}
	return LineageRow{
		ID:          info.ID,
		ParentID:    info.ParentID,
		Index:       idx,
		Token:       tok,
		Entities:    s.Len(),
		Fingerprint: s.Fingerprint(),
		Path:        path,
	}, nil
}

// LineageRepo mirrors the parent chain into an indexed table so parent and
// child lookups are queries rather than file scans. The files stay canonical.
type LineageRepo struct {
	db *DB
}

func NewLineageRepo(db *DB) *LineageRepo {
	return &LineageRepo{db: db}
}

// Record inserts row. Re-recording an id is a no-op.
func (r *LineageRepo) Record(ctx context.Context, row LineageRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO state_lineage (id, parent_id, tick_index, token, entities, fingerprint, path)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		string(row.ID), string(row.ParentID), row.Index, row.Token, row.Entities, int64(row.Fingerprint), row.Path,
	)
	if err != nil {
		return fmt.Errorf("record lineage %s: %w", row.ID, err)
	}
	return nil
}

// Get returns the row for id, or nil if it was never recorded.
func (r *LineageRepo) Get(ctx context.Context, id lineage.ID) (*LineageRow, error) {
	row, err := scanRow(r.db.Pool.QueryRow(ctx,
		`SELECT id, COALESCE(parent_id, ''), tick_index, token, entities, fingerprint, path, created_at
		 FROM state_lineage WHERE id = $1`, string(id),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lineage %s: %w", id, err)
	}
	return row, nil
}

// Children returns the states derived from id, oldest first.
func (r *LineageRepo) Children(ctx context.Context, id lineage.ID) ([]LineageRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, COALESCE(parent_id, ''), tick_index, token, entities, fingerprint, path, created_at
		 FROM state_lineage WHERE parent_id = $1
		 ORDER BY tick_index, token`, string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("query children of %s: %w", id, err)
	}
	defer rows.Close()

	var out []LineageRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child of %s: %w", id, err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// Ancestry walks parent links from id to the root, id first.
func (r *LineageRepo) Ancestry(ctx context.Context, id lineage.ID) ([]LineageRow, error) {
	var chain []LineageRow
	seen := make(map[lineage.ID]bool)
	for cur := id; cur != "" && !seen[cur]; {
		seen[cur] = true
		row, err := r.Get(ctx, cur)
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		chain = append(chain, *row)
		cur = row.ParentID
	}
	return chain, nil
}

func scanRow(row pgx.Row) (*LineageRow, error) {
	var (
		out     LineageRow
		id, pid string
		fp      int64
	)
	if err := row.Scan(&id, &pid, &out.Index, &out.Token, &out.Entities, &fp, &out.Path, &out.CreatedAt); err != nil {
		return nil, err
	}
	out.ID = lineage.ID(id)
	out.ParentID = lineage.ID(pid)
	out.Fingerprint = uint64(fp)
	return &out, nil
}
