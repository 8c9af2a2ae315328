package persist

import (
	"context"
	"fmt"

	"github.com/cosmicrafts/galaxy/internal/data"
	"github.com/cosmicrafts/galaxy/internal/geom"
)

// CatalogRow represents a row from the galaxy_catalog table.
type CatalogRow struct {
	ID        int64
	Kind      string
	Owner     string
	X         float64
	Y         float64
	Payload   []byte
	VelocityX *float64
	VelocityY *float64
	Note      string
}

// Seed converts the row to a seed entry. A velocity needs both columns.
func (r *CatalogRow) Seed() data.SeedEntry {
	s := data.SeedEntry{
		ID:      uint64(r.ID),
		Kind:    r.Kind,
		Owner:   r.Owner,
		X:       r.X,
		Y:       r.Y,
		Payload: string(r.Payload),
		Note:    r.Note,
	}
	if r.VelocityX != nil && r.VelocityY != nil {
		s.Velocity = &geom.Vector{DX: *r.VelocityX, DY: *r.VelocityY}
	}
	return s
}

// CatalogRepo reads the star catalog. The galaxy is never written back;
// the catalog only seeds a cold start.
type CatalogRepo struct {
	db *DB
}

func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// LoadSeeds loads every catalog row in id order. Called at startup.
func (r *CatalogRepo) LoadSeeds(ctx context.Context) (*data.SeedTable, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, kind, owner, x, y, payload, velocity_x, velocity_y, note
		 FROM galaxy_catalog ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []data.SeedEntry
	for rows.Next() {
		var c CatalogRow
		if err := rows.Scan(
			&c.ID, &c.Kind, &c.Owner, &c.X, &c.Y, &c.Payload, &c.VelocityX, &c.VelocityY, &c.Note,
		); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		entries = append(entries, c.Seed())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return data.NewSeedTable(entries), nil
}

// Count returns the number of catalog rows.
func (r *CatalogRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM galaxy_catalog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	return n, nil
}
