package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const directorySchema = `
CREATE TABLE IF NOT EXISTS users (
    user_id text PRIMARY KEY,
    email text NOT NULL,
    email_verified boolean NOT NULL DEFAULT false,
    app_metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
    user_metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
    linked_to text REFERENCES users(user_id),
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS users_email_lower_idx
ON users (LOWER(email));

CREATE TABLE IF NOT EXISTS user_identities (
    provider text NOT NULL,
    provider_user_id text NOT NULL,
    user_id text NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    position integer NOT NULL DEFAULT 0,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    PRIMARY KEY (provider, provider_user_id)
);

CREATE INDEX IF NOT EXISTS user_identities_user_id_idx
ON user_identities (user_id);
`

// Migrate crea las tablas del directorio si no existen.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, directorySchema)
	return err
}
