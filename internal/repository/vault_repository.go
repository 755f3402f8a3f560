package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// vaultRow maps the vaults table; labels travel as a PostgreSQL text array.
type vaultRow struct {
	ID             int64          `db:"id"`
	Title          string         `db:"title"`
	Originator     string         `db:"originator"`
	Fingerprint    string         `db:"fingerprint"`
	Summary        string         `db:"summary"`
	CreatedAt      int64          `db:"created_at"`
	ModifiedAt     int64          `db:"modified_at"`
	Classification string         `db:"classification"`
	Labels         pq.StringArray `db:"labels"`
}

func (r *vaultRow) toModel() *models.Vault {
	return &models.Vault{
		ID:             uint64(r.ID),
		Title:          r.Title,
		Originator:     models.Principal(r.Originator),
		Fingerprint:    r.Fingerprint,
		Summary:        r.Summary,
		CreatedAt:      uint64(r.CreatedAt),
		ModifiedAt:     uint64(r.ModifiedAt),
		Classification: r.Classification,
		Labels:         []string(r.Labels),
	}
}

const vaultColumns = `id, title, originator, fingerprint, summary, created_at, modified_at, classification, labels`

type postgresVaultRepository struct {
	db *sqlx.DB
}

// NewPostgresVaultRepository returns a VaultRepository over the vaults and vault_sequence tables.
func NewPostgresVaultRepository(db *sqlx.DB) VaultRepository {
	return &postgresVaultRepository{db: db}
}

func (r *postgresVaultRepository) Sequence(ctx context.Context) (uint64, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT value FROM vault_sequence LIMIT 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query vault sequence: %w", err)
	}
	return uint64(seq), nil
}

func (r *postgresVaultRepository) GetVault(ctx context.Context, id uint64) (*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE id=$1`
	var row vaultRow

	if err := r.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVaultNotFound
		}
		slog.ErrorContext(ctx, "[VaultRepo] get vault failed", "vault_id", id, "error", err)
		return nil, fmt.Errorf("query vault: %w", err)
	}
	return row.toModel(), nil
}

func (r *postgresVaultRepository) InsertVault(ctx context.Context, v *models.Vault) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.WarnContext(ctx, "[VaultRepo] rollback failed", "error", rbErr)
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE vault_sequence SET value=$1 WHERE value=$2`, int64(v.ID), int64(v.ID)-1)
	if err != nil {
		return fmt.Errorf("advance vault sequence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance vault sequence: %w", err)
	}
	if n != 1 {
		err = ErrSequenceConflict
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vaults (`+vaultColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		int64(v.ID), v.Title, string(v.Originator), v.Fingerprint, v.Summary,
		int64(v.CreatedAt), int64(v.ModifiedAt), v.Classification, pq.StringArray(v.Labels),
	)
	if err != nil {
		return fmt.Errorf("insert vault: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit vault insert: %w", err)
	}
	slog.DebugContext(ctx, "[VaultRepo] vault inserted", "vault_id", v.ID)
	return nil
}

func (r *postgresVaultRepository) UpdateVault(ctx context.Context, v *models.Vault) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vaults SET title=$1, fingerprint=$2, summary=$3, labels=$4, modified_at=$5 WHERE id=$6`,
		v.Title, v.Fingerprint, v.Summary, pq.StringArray(v.Labels), int64(v.ModifiedAt), int64(v.ID),
	)
	if err != nil {
		return fmt.Errorf("update vault: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update vault: %w", err)
	}
	if n == 0 {
		return ErrVaultNotFound
	}
	return nil
}

func (r *postgresVaultRepository) ListVaultsByOriginator(
	ctx context.Context,
	originator models.Principal,
) ([]models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE originator=$1 ORDER BY id`
	var rows []vaultRow
	if err := r.db.SelectContext(ctx, &rows, query, string(originator)); err != nil {
		return nil, fmt.Errorf("query vaults by originator: %w", err)
	}
	vaults := make([]models.Vault, 0, len(rows))
	for i := range rows {
		vaults = append(vaults, *rows[i].toModel())
	}
	return vaults, nil
}
