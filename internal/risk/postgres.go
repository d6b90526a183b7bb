package risk

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiomfin/be-invoice-review/internal/errors"
)

// PostgresStore reads vendor risk profiles from the vendor_risk_profiles
// table. The table is owned and written by the external risk service; this
// store only ever selects.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Lookup implements Store.
func (s *PostgresStore) Lookup(ctx context.Context, vendorID string) (*Profile, error) {
	query := `
		SELECT vendor_id, risk_level, COALESCE(note, '')
		FROM vendor_risk_profiles
		WHERE lower(vendor_id) = lower($1)
	`

	var p Profile
	err := s.pool.QueryRow(ctx, query, vendorID).Scan(&p.VendorID, &p.Level, &p.Note)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "vendor risk lookup failed")
	}

	return &p, nil
}
