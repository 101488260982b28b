package main

import (
	"context"
	"errors"
	"strings"

	"account-linker/internal/domain"
)

// --- DIRECTORIO EN MEMORIA ---

type memoryDirectory struct {
	users     []domain.IdentityRecord
	lookupErr error
	linkErr   error
	writes    []string
}

func newMemoryDirectory(users ...domain.IdentityRecord) *memoryDirectory {
	return &memoryDirectory{users: users}
}

func (m *memoryDirectory) UsersByEmail(_ context.Context, email string) ([]domain.IdentityRecord, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	var out []domain.IdentityRecord
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryDirectory) UpdateAppMetadata(_ context.Context, userID string, metadata domain.Metadata) error {
	u, err := m.find(userID)
	if err != nil {
		return err
	}
	u.AppMetadata = metadata.Clone()
	m.writes = append(m.writes, "app_metadata:"+userID)
	return nil
}

func (m *memoryDirectory) UpdateUserMetadata(_ context.Context, userID string, metadata domain.Metadata) error {
	u, err := m.find(userID)
	if err != nil {
		return err
	}
	u.UserMetadata = metadata.Clone()
	m.writes = append(m.writes, "user_metadata:"+userID)
	return nil
}

func (m *memoryDirectory) LinkIdentity(_ context.Context, primaryUserID string, identity domain.Identity) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	primary, err := m.find(primaryUserID)
	if err != nil {
		return err
	}
	primary.Identities = append(primary.Identities, identity)
	m.writes = append(m.writes, "link:"+primaryUserID+":"+identity.Provider+"|"+identity.UserID.String())
	return nil
}

func (m *memoryDirectory) find(userID string) (*domain.IdentityRecord, error) {
	for i := range m.users {
		if m.users[i].UserID == userID {
			return &m.users[i], nil
		}
	}
	return nil, errors.New("user not found: " + userID)
}
