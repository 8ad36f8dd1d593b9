// pkg/flows/postgres.go
package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"idprest/pkg/config"
)

// pgProvider implements Provider backed by PostgreSQL.
type pgProvider struct {
	dbPool *pgxpool.Pool      // Connection pool to PostgreSQL
	log    *zap.SugaredLogger // Logger for diagnostic output
}

// NewPostgresProvider constructs a PostgreSQL-backed flow registry.
func NewPostgresProvider(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Provider {
	return &pgProvider{dbPool: dbPool, log: log}
}

// EnsureSchema creates the flow table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS authn_flows (
  id text PRIMARY KEY,
  position int NOT NULL DEFAULT 0,
  principals text[] NOT NULL DEFAULT '{}',
  forced_authn boolean NOT NULL DEFAULT false,
  passive_authn boolean NOT NULL DEFAULT false,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS authn_flows_position_idx ON authn_flows(position);
`)
	return err
}

// Seed upserts the catalog flows, keeping catalog order in the position column.
func Seed(ctx context.Context, dbPool *pgxpool.Pool, specs []config.FlowSpec) error {
	if len(specs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, s := range specs {
		principals := s.Principals
		if principals == nil {
			principals = []string{}
		}
		batch.Queue(`INSERT INTO authn_flows(id,position,principals,forced_authn,passive_authn)
		  VALUES ($1,$2,$3,$4,$5)
		  ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position,principals=EXCLUDED.principals,
		  forced_authn=EXCLUDED.forced_authn,passive_authn=EXCLUDED.passive_authn,updated_at=NOW()`,
			s.ID, i, principals, s.ForcedAuthn, s.PassiveAuthn)
	}
	br := dbPool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range specs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("seed flow %s: %w", specs[i].ID, err)
		}
	}
	return nil
}

// ListFlows returns all flows ordered by their catalog position.
func (p *pgProvider) ListFlows(ctx context.Context) ([]Descriptor, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT id,principals,forced_authn,passive_authn FROM authn_flows ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Descriptor
	for rows.Next() {
		var d Descriptor
		var principals []string
		if err := rows.Scan(&d.ID, &principals, &d.ForcedAuthn, &d.PassiveAuthn); err != nil {
			return nil, err
		}
		d.Markers = ParseMarkers(principals)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.log.Debugw("loaded flows from postgres", "flows", len(out))
	return out, nil
}

// GetFlow fetches a flow by its raw id.
func (p *pgProvider) GetFlow(ctx context.Context, id string) (Descriptor, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT id,principals,forced_authn,passive_authn FROM authn_flows WHERE id=$1`, id)
	var d Descriptor
	var principals []string
	if err := row.Scan(&d.ID, &principals, &d.ForcedAuthn, &d.PassiveAuthn); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Descriptor{}, ErrFlowNotFound
		}
		return Descriptor{}, err
	}
	d.Markers = ParseMarkers(principals)
	return d, nil
}
