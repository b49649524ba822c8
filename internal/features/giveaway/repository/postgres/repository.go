package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"brainrot-market-backend/internal/features/giveaway/models"
	"brainrot-market-backend/internal/features/giveaway/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.GiveawayRepository {
	return &postgresRepository{db: db}
}

const giveawayColumns = `id, server_id, channel_id, message_id, prize, winners_count,
	ends_at, ended, rigged, participants, winners, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	participants, err := json.Marshal(emptyIfNil(giveaway.Participants))
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}
	winners, err := json.Marshal(emptyIfNil(giveaway.Winners))
	if err != nil {
		return fmt.Errorf("failed to encode winners: %w", err)
	}

	query := `
		INSERT INTO giveaways (id, server_id, channel_id, message_id, prize, winners_count,
			ends_at, ended, rigged, participants, winners, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.ExecContext(ctx, query,
		giveaway.ID, giveaway.ServerID, giveaway.ChannelID, giveaway.MessageID,
		giveaway.Prize, giveaway.WinnersCount, giveaway.EndsAt, giveaway.Ended,
		giveaway.Rigged, participants, winners, giveaway.CreatedAt, giveaway.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return repository.ErrDuplicateMessage
		}
		return fmt.Errorf("failed to create giveaway: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	query := fmt.Sprintf(`SELECT %s FROM giveaways WHERE id = $1`, giveawayColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRepository) GetByMessageID(ctx context.Context, messageID string) (*models.Giveaway, error) {
	query := fmt.Sprintf(`SELECT %s FROM giveaways WHERE message_id = $1`, giveawayColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, messageID))
}

func (r *postgresRepository) GetAllForServer(ctx context.Context, serverID string, activeOnly bool) ([]*models.Giveaway, error) {
	query := fmt.Sprintf(`SELECT %s FROM giveaways WHERE server_id = $1`, giveawayColumns)
	if activeOnly {
		query += ` AND NOT ended`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *postgresRepository) AddParticipant(ctx context.Context, id, userID string) (bool, error) {
	query := `
		UPDATE giveaways
		SET participants = participants || to_jsonb($2::text), updated_at = NOW()
		WHERE id = $1 AND NOT ended AND NOT participants @> to_jsonb($2::text)
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *postgresRepository) MarkEnded(ctx context.Context, id string) (bool, error) {
	query := `UPDATE giveaways SET ended = TRUE, updated_at = NOW() WHERE id = $1 AND NOT ended`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark giveaway ended: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *postgresRepository) SetWinners(ctx context.Context, id string, winners []string, rigged bool) error {
	encoded, err := json.Marshal(emptyIfNil(winners))
	if err != nil {
		return fmt.Errorf("failed to encode winners: %w", err)
	}

	query := `UPDATE giveaways SET winners = $2, rigged = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, encoded, rigged)
	if err != nil {
		return fmt.Errorf("failed to set winners: %w", err)
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

func (r *postgresRepository) GetExpiredUnended(ctx context.Context, now time.Time) ([]*models.Giveaway, error) {
	query := fmt.Sprintf(`SELECT %s FROM giveaways WHERE NOT ended AND ends_at <= $1`, giveawayColumns)
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired giveaways: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *postgresRepository) GetUnended(ctx context.Context) ([]*models.Giveaway, error) {
	query := fmt.Sprintf(`SELECT %s FROM giveaways WHERE NOT ended`, giveawayColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unended giveaways: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM giveaways WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete giveaway: %w", err)
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

func (r *postgresRepository) scanOne(row rowScanner) (*models.Giveaway, error) {
	var g models.Giveaway
	var participants, winners []byte

	err := row.Scan(
		&g.ID, &g.ServerID, &g.ChannelID, &g.MessageID, &g.Prize, &g.WinnersCount,
		&g.EndsAt, &g.Ended, &g.Rigged, &participants, &winners, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan giveaway: %w", err)
	}

	if err := json.Unmarshal(participants, &g.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	if err := json.Unmarshal(winners, &g.Winners); err != nil {
		return nil, fmt.Errorf("failed to decode winners: %w", err)
	}

	return &g, nil
}

func (r *postgresRepository) scanAll(rows *sql.Rows) ([]*models.Giveaway, error) {
	giveaways := make([]*models.Giveaway, 0)
	for rows.Next() {
		g, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
