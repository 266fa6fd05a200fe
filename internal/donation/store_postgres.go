package donation

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the postgres driver for database/sql.
	_ "github.com/lib/pq"

	"veilfund/pkg/domain"
)

// PostgresHistory persists the donation history in PostgreSQL. The table is
// append-only; nothing in the service updates or deletes rows.
type PostgresHistory struct {
	db *sql.DB
}

// NewPostgresHistory constructs a PostgreSQL-backed donation history.
func NewPostgresHistory(db *sql.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// EnsureSchema creates the history table if it does not exist. Called once at
// startup; deployments with managed migrations can skip it.
func (s *PostgresHistory) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS donation_history (
			id          BIGSERIAL PRIMARY KEY,
			donor       TEXT        NOT NULL,
			campaign_id TEXT        NOT NULL,
			ts          TIMESTAMPTZ NOT NULL,
			anonymous   BOOLEAN     NOT NULL,
			public      BOOLEAN     NOT NULL
		);
		CREATE INDEX IF NOT EXISTS donation_history_campaign_idx
			ON donation_history (campaign_id, id DESC);
		CREATE INDEX IF NOT EXISTS donation_history_donor_idx
			ON donation_history (donor, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure donation history schema: %w", err)
	}
	return nil
}

func (s *PostgresHistory) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donation_history (donor, campaign_id, ts, anonymous, public)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.Donor.String(), rec.CampaignID.String(), rec.Timestamp, rec.Anonymous, rec.Public)
	if err != nil {
		return fmt.Errorf("append donation record: %w", err)
	}
	return nil
}

func (s *PostgresHistory) ListRecent(ctx context.Context, campaignID domain.CampaignID, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT donor, campaign_id, ts, anonymous, public
		FROM donation_history
		WHERE campaign_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, campaignID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent donations: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresHistory) ListByDonor(ctx context.Context, donor domain.Principal) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT donor, campaign_id, ts, anonymous, public
		FROM donation_history
		WHERE donor = $1
		ORDER BY id DESC
	`, donor.String())
	if err != nil {
		return nil, fmt.Errorf("list donor donations: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var donor, campaignID string
		if err := rows.Scan(&donor, &campaignID, &rec.Timestamp, &rec.Anonymous, &rec.Public); err != nil {
			return nil, fmt.Errorf("scan donation record: %w", err)
		}
		rec.Donor = domain.Principal(donor)
		rec.CampaignID = domain.CampaignID(campaignID)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donation records: %w", err)
	}
	return out, nil
}
