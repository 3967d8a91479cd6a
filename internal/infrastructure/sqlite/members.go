package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-band-notify/internal/domain"
)

// MemberRepo is a read model of band membership, fed by the band
// management side of the product.
type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) Put(ctx context.Context, m *domain.BandMember) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO band_members (band_id, user_id, active, joined_at) VALUES (?, ?, ?, ?)
ON CONFLICT (band_id, user_id) DO UPDATE SET active = excluded.active`,
		m.BandID, m.UserID, m.Active, toMillis(m.JoinedAt))
	if err != nil {
		return fmt.Errorf("put band member: %w", err)
	}
	return nil
}

func (r *MemberRepo) ListByBand(ctx context.Context, bandID string) ([]domain.BandMember, error) {
	return listMembers(ctx, r.db, bandID)
}

func listMembers(ctx context.Context, q querier, bandID string) ([]domain.BandMember, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT band_id, user_id, active, joined_at FROM band_members WHERE band_id = ? ORDER BY user_id`, bandID)
	if err != nil {
		return nil, fmt.Errorf("list band members: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.BandMember
	for rows.Next() {
		var (
			m      domain.BandMember
			joined int64
		)
		if err := rows.Scan(&m.BandID, &m.UserID, &m.Active, &joined); err != nil {
			return nil, err
		}
		m.JoinedAt = fromMillis(joined)
		out = append(out, m)
	}
	return out, rows.Err()
}
