package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IdentityRecord representa una cuenta tal como la expone el directorio.
type IdentityRecord struct {
	UserID        string     `json:"user_id"`
	Email         string     `json:"email,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	Identities    []Identity `json:"identities,omitempty"`
	AppMetadata   Metadata   `json:"app_metadata,omitempty"`
	UserMetadata  Metadata   `json:"user_metadata,omitempty"`
	SAMLEmail     string     `json:"myemail,omitempty"`

	// Extra conserva el resto del perfil (name, picture, ...) para devolverlo intacto.
	Extra Extra `json:"-"`
}

// Identity es una identidad de proveedor agregada bajo una cuenta.
type Identity struct {
	Provider string         `json:"provider"`
	UserID   ProviderUserID `json:"user_id"`

	Extra Extra `json:"-"`
}

type identityRecordJSON IdentityRecord

func (r IdentityRecord) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(identityRecordJSON(r), r.Extra)
}

func (r *IdentityRecord) UnmarshalJSON(data []byte) error {
	var known identityRecordJSON
	extra, err := decodeWithExtra(data, &known,
		"user_id", "email", "email_verified", "identities", "app_metadata", "user_metadata", "myemail")
	if err != nil {
		return err
	}
	known.Extra = extra
	*r = IdentityRecord(known)
	return nil
}

type identityJSON Identity

func (i Identity) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(identityJSON(i), i.Extra)
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	var known identityJSON
	extra, err := decodeWithExtra(data, &known, "provider", "user_id")
	if err != nil {
		return err
	}
	known.Extra = extra
	*i = Identity(known)
	return nil
}

// IsLinked indica si la cuenta ya agrega identidades secundarias.
func (r IdentityRecord) IsLinked() bool {
	return len(r.Identities) > 1
}

// ProviderUserID acepta ids numéricos o string y siempre serializa como string.
type ProviderUserID string

func (id ProviderUserID) String() string {
	return string(id)
}

func (id ProviderUserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id *ProviderUserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProviderUserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("provider user id: %w", err)
	}
	*id = ProviderUserID(n.String())
	return nil
}
