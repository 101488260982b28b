//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"account-linker/internal/domain"
)

// Correr con: DATABASE_URL=postgres://... go test -tags integration ./internal/repository/
func newIntegrationDirectory(t *testing.T) (*PgDirectory, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPgDirectory(pool), pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, userID, email string, createdAt time.Time, identities ...domain.Identity) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (user_id, email, email_verified, created_at)
		VALUES ($1, $2, true, $3)
	`, userID, email, createdAt)
	if err != nil {
		t.Fatalf("seed user %s: %v", userID, err)
	}
	for pos, ident := range identities {
		_, err := pool.Exec(ctx, `
			INSERT INTO user_identities (provider, provider_user_id, user_id, position)
			VALUES ($1, $2, $3, $4)
		`, ident.Provider, ident.UserID.String(), userID, pos)
		if err != nil {
			t.Fatalf("seed identity %s: %v", ident.Provider, err)
		}
	}
}

func TestPgDirectory_LinkedPrimaryFirstThenOldest(t *testing.T) {
	dir, pool := newIntegrationDirectory(t)
	ctx := context.Background()
	suffix := uuid.NewString()
	email := "order-" + suffix + "@example.com"
	base := time.Now().Add(-time.Hour).UTC()

	oldest := "oldest|" + suffix
	primary := "primary|" + suffix
	newest := "newest|" + suffix
	seedUser(t, pool, oldest, email, base, domain.Identity{Provider: "google-" + suffix, UserID: "1"})
	seedUser(t, pool, primary, email, base.Add(time.Minute),
		domain.Identity{Provider: "ad-" + suffix, UserID: "2"},
		domain.Identity{Provider: "github-" + suffix, UserID: "3"},
	)
	seedUser(t, pool, newest, email, base.Add(2*time.Minute), domain.Identity{Provider: "fb-" + suffix, UserID: "4"})

	got, err := dir.UsersByEmail(ctx, email)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 3 || got[0].UserID != primary || got[1].UserID != oldest || got[2].UserID != newest {
		t.Fatalf("unexpected order %+v", got)
	}
	if len(got[0].Identities) != 2 || got[0].Identities[0].Provider != "ad-"+suffix {
		t.Fatalf("expected identities in position order, got %+v", got[0].Identities)
	}
}

func TestPgDirectory_LinkIdentityMovesIdentityAndAbsorbsOwner(t *testing.T) {
	dir, pool := newIntegrationDirectory(t)
	ctx := context.Background()
	suffix := uuid.NewString()
	email := "link-" + suffix + "@example.com"
	base := time.Now().Add(-time.Hour).UTC()

	primary := "primary|" + suffix
	secondary := "secondary|" + suffix
	moved := domain.Identity{Provider: "github-" + suffix, UserID: "42"}
	seedUser(t, pool, primary, email, base, domain.Identity{Provider: "ad-" + suffix, UserID: "1"})
	seedUser(t, pool, secondary, email, base.Add(time.Minute), moved)

	if err := dir.LinkIdentity(ctx, primary, moved); err != nil {
		t.Fatalf("link: %v", err)
	}
	// Repetir el vínculo es idempotente.
	if err := dir.LinkIdentity(ctx, primary, moved); err != nil {
		t.Fatalf("second link: %v", err)
	}

	got, err := dir.UsersByEmail(ctx, email)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 || got[0].UserID != primary || len(got[0].Identities) != 2 {
		t.Fatalf("expected only the primary with both identities, got %+v", got)
	}
	if got[0].Identities[1].Provider != moved.Provider {
		t.Fatalf("expected moved identity appended last, got %+v", got[0].Identities)
	}

	var linkedTo string
	if err := pool.QueryRow(ctx, `SELECT linked_to FROM users WHERE user_id = $1`, secondary).Scan(&linkedTo); err != nil {
		t.Fatalf("read linked_to: %v", err)
	}
	if linkedTo != primary {
		t.Fatalf("expected secondary linked to primary, got %q", linkedTo)
	}
}

func TestPgDirectory_LinkIdentityErrors(t *testing.T) {
	dir, pool := newIntegrationDirectory(t)
	ctx := context.Background()
	suffix := uuid.NewString()
	primary := "primary|" + suffix
	seedUser(t, pool, primary, "errors-"+suffix+"@example.com", time.Now().UTC(), domain.Identity{Provider: "ad-" + suffix, UserID: "1"})

	err := dir.LinkIdentity(ctx, "missing|"+suffix, domain.Identity{Provider: "ad-" + suffix, UserID: "1"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	err = dir.LinkIdentity(ctx, primary, domain.Identity{Provider: "nowhere-" + suffix, UserID: "9"})
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestPgDirectory_UpdateMetadata(t *testing.T) {
	dir, pool := newIntegrationDirectory(t)
	ctx := context.Background()
	suffix := uuid.NewString()
	email := "meta-" + suffix + "@example.com"
	userID := "user|" + suffix
	seedUser(t, pool, userID, email, time.Now().UTC(), domain.Identity{Provider: "ad-" + suffix, UserID: "1"})

	if err := dir.UpdateAppMetadata(ctx, userID, domain.Metadata{"role": "staff"}); err != nil {
		t.Fatalf("app metadata: %v", err)
	}
	if err := dir.UpdateUserMetadata(ctx, userID, domain.Metadata{"locale": "fr"}); err != nil {
		t.Fatalf("user metadata: %v", err)
	}
	got, err := dir.UsersByEmail(ctx, email)
	if err != nil || len(got) != 1 {
		t.Fatalf("lookup: %v %+v", err, got)
	}
	if got[0].AppMetadata["role"] != "staff" || got[0].UserMetadata["locale"] != "fr" {
		t.Fatalf("unexpected metadata %+v", got[0])
	}

	if err := dir.UpdateAppMetadata(ctx, "missing|"+suffix, nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
