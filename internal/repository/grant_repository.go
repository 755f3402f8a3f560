package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

type grantRow struct {
	VaultID   int64  `db:"vault_id"`
	Grantee   string `db:"grantee"`
	Tier      string `db:"tier"`
	GrantedAt int64  `db:"granted_at"`
	ExpiresAt int64  `db:"expires_at"`
	CanModify bool   `db:"can_modify"`
}

func (r *grantRow) toModel() models.AccessGrant {
	return models.AccessGrant{
		VaultID:   uint64(r.VaultID),
		Grantee:   models.Principal(r.Grantee),
		Tier:      models.Tier(r.Tier),
		GrantedAt: uint64(r.GrantedAt),
		ExpiresAt: uint64(r.ExpiresAt),
		CanModify: r.CanModify,
	}
}

const grantColumns = `vault_id, grantee, tier, granted_at, expires_at, can_modify`

type postgresGrantRepository struct {
	db *sqlx.DB
}

// NewPostgresGrantRepository returns a GrantRepository over the access_grants table.
func NewPostgresGrantRepository(db *sqlx.DB) GrantRepository {
	return &postgresGrantRepository{db: db}
}

func (r *postgresGrantRepository) GetGrant(
	ctx context.Context,
	vaultID uint64,
	grantee models.Principal,
) (*models.AccessGrant, error) {
	query := `SELECT ` + grantColumns + ` FROM access_grants WHERE vault_id=$1 AND grantee=$2`
	var row grantRow
	if err := r.db.GetContext(ctx, &row, query, int64(vaultID), string(grantee)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("query grant: %w", err)
	}
	g := row.toModel()
	return &g, nil
}

// PutGrant upserts on the (vault_id, grantee) key; the latest write wins.
func (r *postgresGrantRepository) PutGrant(ctx context.Context, g *models.AccessGrant) error {
	query := `INSERT INTO access_grants (` + grantColumns + `) VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (vault_id, grantee) DO UPDATE
	          SET tier=EXCLUDED.tier, granted_at=EXCLUDED.granted_at,
	              expires_at=EXCLUDED.expires_at, can_modify=EXCLUDED.can_modify`
	_, err := r.db.ExecContext(ctx, query,
		int64(g.VaultID), string(g.Grantee), string(g.Tier),
		int64(g.GrantedAt), int64(g.ExpiresAt), g.CanModify,
	)
	if err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

func (r *postgresGrantRepository) ListGrants(ctx context.Context, vaultID uint64) ([]models.AccessGrant, error) {
	query := `SELECT ` + grantColumns + ` FROM access_grants WHERE vault_id=$1 ORDER BY grantee`
	var rows []grantRow
	if err := r.db.SelectContext(ctx, &rows, query, int64(vaultID)); err != nil {
		return nil, fmt.Errorf("query grants: %w", err)
	}
	grants := make([]models.AccessGrant, 0, len(rows))
	for i := range rows {
		grants = append(grants, rows[i].toModel())
	}
	return grants, nil
}
