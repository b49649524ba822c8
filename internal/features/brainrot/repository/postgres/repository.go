package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"brainrot-market-backend/internal/features/brainrot/models"
	"brainrot-market-backend/internal/features/brainrot/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.BrainrotRepository {
	return &postgresRepository{db: db}
}

const brainrotColumns = `id, server_id, name, rarity, mutation, traits, price_usd,
	demand, created_by, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, brainrot *models.Brainrot) error {
	traits, err := json.Marshal(brainrot.Traits)
	if err != nil {
		return fmt.Errorf("failed to encode traits: %w", err)
	}

	query := `
		INSERT INTO brainrots (id, server_id, name, rarity, mutation, traits, price_usd,
			demand, merge_key, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		brainrot.ID, brainrot.ServerID, brainrot.Name, brainrot.Rarity, brainrot.Mutation,
		traits, brainrot.PriceUSD, brainrot.Demand, brainrot.MergeKey(),
		brainrot.CreatedBy, brainrot.CreatedAt, brainrot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create brainrot: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*models.Brainrot, error) {
	query := fmt.Sprintf(`SELECT %s FROM brainrots WHERE id = $1`, brainrotColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRepository) GetByMergeKey(ctx context.Context, serverID, mergeKey string) (*models.Brainrot, error) {
	query := fmt.Sprintf(`SELECT %s FROM brainrots WHERE server_id = $1 AND merge_key = $2`, brainrotColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, serverID, mergeKey))
}

func (r *postgresRepository) ListForServer(ctx context.Context, serverID string, filter models.ListFilter) ([]*models.Brainrot, error) {
	query := fmt.Sprintf(`SELECT %s FROM brainrots WHERE server_id = $1`, brainrotColumns)
	args := []interface{}{serverID}

	if filter.Rarity != "" {
		args = append(args, filter.Rarity)
		query += fmt.Sprintf(` AND rarity = $%d`, len(args))
	}
	if filter.Mutation != "" {
		args = append(args, filter.Mutation)
		query += fmt.Sprintf(` AND mutation = $%d`, len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
		query += fmt.Sprintf(` AND LOWER(name) LIKE $%d`, len(args))
	}
	query += ` ORDER BY price_usd DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brainrots: %w", err)
	}
	defer rows.Close()

	brainrots := make([]*models.Brainrot, 0)
	for rows.Next() {
		b, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		brainrots = append(brainrots, b)
	}
	return brainrots, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, brainrot *models.Brainrot) error {
	traits, err := json.Marshal(brainrot.Traits)
	if err != nil {
		return fmt.Errorf("failed to encode traits: %w", err)
	}

	query := `
		UPDATE brainrots
		SET name = $2, rarity = $3, mutation = $4, traits = $5, price_usd = $6,
			demand = $7, merge_key = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		brainrot.ID, brainrot.Name, brainrot.Rarity, brainrot.Mutation, traits,
		brainrot.PriceUSD, brainrot.Demand, brainrot.MergeKey(), brainrot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update brainrot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM brainrots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brainrot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresRepository) scanOne(row rowScanner) (*models.Brainrot, error) {
	var b models.Brainrot
	var traits []byte

	err := row.Scan(
		&b.ID, &b.ServerID, &b.Name, &b.Rarity, &b.Mutation, &traits,
		&b.PriceUSD, &b.Demand, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan brainrot: %w", err)
	}

	if err := json.Unmarshal(traits, &b.Traits); err != nil {
		return nil, fmt.Errorf("failed to decode traits: %w", err)
	}

	return &b, nil
}
