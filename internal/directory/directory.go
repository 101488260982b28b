package directory

import (
	"context"
	"fmt"

	"account-linker/internal/domain"
)

// Directory es el sistema de registro de cuentas; el linker solo lo usa a través de esta API.
type Directory interface {
	UsersByEmail(ctx context.Context, email string) ([]domain.IdentityRecord, error)
	UpdateAppMetadata(ctx context.Context, userID string, metadata domain.Metadata) error
	UpdateUserMetadata(ctx context.Context, userID string, metadata domain.Metadata) error
	LinkIdentity(ctx context.Context, primaryUserID string, identity domain.Identity) error
}

// StatusError describe una respuesta no exitosa del directorio.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("directory %s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("directory %s: %s: %s", e.Op, e.Status, e.Body)
}
