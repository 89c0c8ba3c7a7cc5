package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"airbnb-reconciler/models"
)

// PostgresStore is the catalog and candidate store backed by PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	baseURL string
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore. baseURL builds the listing URL of
// linked ids that were never scraped.
func NewPostgresStore(ctx context.Context, dsn string, pingTries int, baseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if pingTries < 1 {
		pingTries = 1
	}
	for i := 0; i < pingTries; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		if i < pingTries-1 {
			select {
			case <-ctx.Done():
				_ = db.Close()
				return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after %d tries: %w", pingTries, err)
	}

	ps := &PostgresStore{db: db, baseURL: baseURL}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS properties (
			id            BIGSERIAL    PRIMARY KEY,
			title         TEXT         NOT NULL,
			status        VARCHAR(32)  NOT NULL DEFAULT 'active',
			airbnb_id     TEXT,
			airbnb_synced BOOLEAN      NOT NULL DEFAULT FALSE,
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS external_listings (
			airbnb_id  TEXT          PRIMARY KEY,
			url        TEXT          NOT NULL,
			title      TEXT,
			price      NUMERIC(10,2),
			location   TEXT,
			guests     INTEGER,
			bedrooms   INTEGER,
			bathrooms  INTEGER,
			scraped_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_properties_airbnb_id ON properties(airbnb_id);
	`)
	return err
}

const propertyColumns = `
	SELECT p.id, p.title, p.status, p.airbnb_id, COALESCE(e.url, ''), p.airbnb_synced, p.updated_at
	FROM properties p
	LEFT JOIN external_listings e ON e.airbnb_id = p.airbnb_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (ps *PostgresStore) scanProperty(row rowScanner) (*models.InternalProperty, error) {
	p := &models.InternalProperty{}
	var externalID sql.NullString
	var url string
	if err := row.Scan(&p.ID, &p.Title, &p.Status, &externalID, &url, &p.Synced, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if externalID.Valid && externalID.String != "" {
		if url == "" {
			url = models.ListingURL(ps.baseURL, externalID.String)
		}
		p.ExternalRef = &models.ExternalListingRef{ID: externalID.String, URL: url}
	}
	return p, nil
}

func (ps *PostgresStore) ListProperties(ctx context.Context) ([]*models.InternalProperty, error) {
	rows, err := ps.db.QueryContext(ctx, propertyColumns+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list properties: %w", err)
	}
	defer rows.Close()

	var props []*models.InternalProperty
	for rows.Next() {
		p, err := ps.scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan property: %w", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

func (ps *PostgresStore) GetProperty(ctx context.Context, id int64) (*models.InternalProperty, error) {
	p, err := ps.scanProperty(ps.db.QueryRowContext(ctx, propertyColumns+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("postgres: property %d: %w", id, ErrPropertyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get property %d: %w", id, err)
	}
	return p, nil
}

// ApplyInstruction writes a confirmed link or unlink.
func (ps *PostgresStore) ApplyInstruction(ctx context.Context, instr models.ReconciliationInstruction) (*models.InternalProperty, error) {
	var (
		res sql.Result
		err error
	)
	switch instr.Action {
	case models.ActionLink:
		if instr.ExternalID == "" {
			return nil, fmt.Errorf("postgres: link property %d: empty external id", instr.InternalPropertyID)
		}
		res, err = ps.db.ExecContext(ctx, `
			UPDATE properties SET airbnb_id = $1, airbnb_synced = TRUE, updated_at = NOW()
			WHERE id = $2
		`, instr.ExternalID, instr.InternalPropertyID)
	case models.ActionUnlink:
		res, err = ps.db.ExecContext(ctx, `
			UPDATE properties SET airbnb_id = NULL, airbnb_synced = FALSE, updated_at = NOW()
			WHERE id = $1
		`, instr.InternalPropertyID)
	default:
		return nil, fmt.Errorf("postgres: unknown action %q", instr.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: apply %s to property %d: %w", instr.Action, instr.InternalPropertyID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("postgres: property %d: %w", instr.InternalPropertyID, ErrPropertyNotFound)
	}
	return ps.GetProperty(ctx, instr.InternalPropertyID)
}

// SaveCandidates upserts the scraped batch into external_listings.
func (ps *PostgresStore) SaveCandidates(ctx context.Context, details []*models.ExternalListingDetail) error {
	if len(details) == 0 {
		return nil
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	const batchSize = 50
	for i := 0; i < len(details); i += batchSize {
		end := i + batchSize
		if end > len(details) {
			end = len(details)
		}
		if err := insertCandidateBatch(ctx, tx, details[i:end]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit candidates: %w", err)
	}
	return nil
}

func insertCandidateBatch(ctx context.Context, tx *sql.Tx, batch []*models.ExternalListingDetail) error {
	const cols = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, d := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			d.ID, d.URL, d.Title, d.Price, d.Location, d.Guests, d.Bedrooms, d.Bathrooms)
	}

	query := fmt.Sprintf(`
		INSERT INTO external_listings (airbnb_id, url, title, price, location, guests, bedrooms, bathrooms)
		VALUES %s
		ON CONFLICT (airbnb_id) DO UPDATE SET
			url = EXCLUDED.url, title = EXCLUDED.title, price = EXCLUDED.price,
			location = EXCLUDED.location, guests = EXCLUDED.guests,
			bedrooms = EXCLUDED.bedrooms, bathrooms = EXCLUDED.bathrooms,
			scraped_at = NOW()
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert candidates: %w", err)
	}
	return nil
}

func (ps *PostgresStore) ListCandidates(ctx context.Context) ([]*models.ExternalListingDetail, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT airbnb_id, url, title, price, location, guests, bedrooms, bathrooms
		FROM external_listings
		ORDER BY airbnb_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list candidates: %w", err)
	}
	defer rows.Close()

	details := []*models.ExternalListingDetail{}
	for rows.Next() {
		d := &models.ExternalListingDetail{}
		if err := rows.Scan(&d.ID, &d.URL, &d.Title, &d.Price, &d.Location,
			&d.Guests, &d.Bedrooms, &d.Bathrooms); err != nil {
			return nil, fmt.Errorf("postgres: scan candidate: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
