package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"account-linker/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrIdentityNotFound = errors.New("identity not found")
)

// PgDirectory implementa directory.Directory sobre Postgres para despliegues sin directorio externo.
type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

// candidateOrder fija el orden que espera service.Decide: la cuenta que ya agrega
// varias identidades (primaria de vinculaciones previas) va primero, el resto por
// antigüedad. user_id desempata para que el orden sea estable entre llamadas.
const candidateOrder = `ORDER BY COUNT(i.provider) > 1 DESC, u.created_at, u.user_id`

// usersByEmailQuery excluye las cuentas ya absorbidas (linked_to) y agrega sus identidades en orden.
const usersByEmailQuery = `
	SELECT u.user_id, u.email, u.email_verified, u.app_metadata, u.user_metadata,
	       COALESCE(
	           json_agg(json_build_object('provider', i.provider, 'user_id', i.provider_user_id)
	                    ORDER BY i.position) FILTER (WHERE i.provider IS NOT NULL),
	           '[]'::json
	       ) AS identities
	FROM users u
	LEFT JOIN user_identities i ON i.user_id = u.user_id
	WHERE LOWER(u.email) = LOWER($1)
	  AND u.linked_to IS NULL
	GROUP BY u.user_id
	` + candidateOrder

// UsersByEmail devuelve las cuentas con ese email en el orden de candidateOrder.
func (r *PgDirectory) UsersByEmail(ctx context.Context, email string) ([]domain.IdentityRecord, error) {
	rows, err := r.pool.Query(ctx, usersByEmailQuery, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IdentityRecord
	for rows.Next() {
		var userID, userEmail string
		var verified bool
		var appRaw, userRaw, identitiesRaw []byte
		if err := rows.Scan(&userID, &userEmail, &verified, &appRaw, &userRaw, &identitiesRaw); err != nil {
			return nil, err
		}
		rec, err := buildRecord(userID, userEmail, verified, appRaw, userRaw, identitiesRaw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PgDirectory) UpdateAppMetadata(ctx context.Context, userID string, metadata domain.Metadata) error {
	const query = `
		UPDATE users SET app_metadata = $2::jsonb, updated_at = NOW()
		WHERE user_id = $1
	`
	return r.updateMetadata(ctx, query, userID, metadata)
}

func (r *PgDirectory) UpdateUserMetadata(ctx context.Context, userID string, metadata domain.Metadata) error {
	const query = `
		UPDATE users SET user_metadata = $2::jsonb, updated_at = NOW()
		WHERE user_id = $1
	`
	return r.updateMetadata(ctx, query, userID, metadata)
}

func (r *PgDirectory) updateMetadata(ctx context.Context, query, userID string, metadata domain.Metadata) error {
	payload, err := json.Marshal(metadata.Clone())
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, userID, string(payload))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// LinkIdentity mueve la identidad a la cuenta primaria. Las filas se bloquean con
// FOR UPDATE, así dos vinculaciones simultáneas del mismo par quedan serializadas.
func (r *PgDirectory) LinkIdentity(ctx context.Context, primaryUserID string, identity domain.Identity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT user_id FROM users WHERE user_id = $1 AND linked_to IS NULL FOR UPDATE`, primaryUserID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	var owner string
	err = tx.QueryRow(ctx, `
		SELECT user_id FROM user_identities
		WHERE provider = $1 AND provider_user_id = $2
		FOR UPDATE
	`, identity.Provider, identity.UserID.String()).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrIdentityNotFound
	}
	if err != nil {
		return err
	}
	if owner == primaryUserID {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE user_id = $1 FOR UPDATE`, owner); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_identities
		SET user_id = $1,
		    position = (SELECT COALESCE(MAX(position), 0) + 1 FROM user_identities WHERE user_id = $1)
		WHERE provider = $2 AND provider_user_id = $3
	`, primaryUserID, identity.Provider, identity.UserID.String())
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET linked_to = $1, updated_at = NOW()
		WHERE user_id = $2
		  AND NOT EXISTS (SELECT 1 FROM user_identities WHERE user_id = $2)
	`, primaryUserID, owner)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func buildRecord(userID, email string, verified bool, appRaw, userRaw, identitiesRaw []byte) (domain.IdentityRecord, error) {
	rec := domain.IdentityRecord{
		UserID:        userID,
		Email:         email,
		EmailVerified: verified,
	}
	if len(appRaw) > 0 {
		if err := json.Unmarshal(appRaw, &rec.AppMetadata); err != nil {
			return domain.IdentityRecord{}, fmt.Errorf("decode app_metadata for %s: %w", userID, err)
		}
	}
	if len(userRaw) > 0 {
		if err := json.Unmarshal(userRaw, &rec.UserMetadata); err != nil {
			return domain.IdentityRecord{}, fmt.Errorf("decode user_metadata for %s: %w", userID, err)
		}
	}
	if len(identitiesRaw) > 0 {
		if err := json.Unmarshal(identitiesRaw, &rec.Identities); err != nil {
			return domain.IdentityRecord{}, fmt.Errorf("decode identities for %s: %w", userID, err)
		}
	}
	return rec, nil
}
