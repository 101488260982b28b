package domain

import (
	"encoding/json"
	"maps"
)

// AuthContext viaja con el login; el linker solo escribe PrimaryUser y PrimaryUserMetadata.
// El resto del contexto pertenece al pipeline de login y se conserva en Extra.
type AuthContext struct {
	ClientID            string             `json:"clientID,omitempty"`
	PrimaryUser         string             `json:"primaryUser,omitempty"`
	PrimaryUserMetadata Metadata           `json:"primaryUserMetadata,omitempty"`
	SAMLConfiguration   *SAMLConfiguration `json:"samlConfiguration,omitempty"`

	Extra Extra `json:"-"`
}

type authContextJSON AuthContext

func (c AuthContext) MarshalJSON() ([]byte, error) {
	extra := c.Extra
	// Tras vincular, primaryUserMetadata se publica aunque la primaria no tuviera metadata.
	if c.PrimaryUser != "" && c.PrimaryUserMetadata != nil && len(c.PrimaryUserMetadata) == 0 {
		extra = maps.Clone(extra)
		if extra == nil {
			extra = Extra{}
		}
		extra["primaryUserMetadata"] = json.RawMessage(`{}`)
	}
	return encodeWithExtra(authContextJSON(c), extra)
}

func (c *AuthContext) UnmarshalJSON(data []byte) error {
	var known authContextJSON
	extra, err := decodeWithExtra(data, &known,
		"clientID", "primaryUser", "primaryUserMetadata", "samlConfiguration")
	if err != nil {
		return err
	}
	known.Extra = extra
	*c = AuthContext(known)
	return nil
}

type SAMLConfiguration struct {
	Mappings             map[string]string `json:"mappings,omitempty"`
	NameIdentifierFormat string            `json:"nameIdentifierFormat,omitempty"`

	Extra Extra `json:"-"`
}

type samlConfigurationJSON SAMLConfiguration

func (s SAMLConfiguration) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(samlConfigurationJSON(s), s.Extra)
}

func (s *SAMLConfiguration) UnmarshalJSON(data []byte) error {
	var known samlConfigurationJSON
	extra, err := decodeWithExtra(data, &known, "mappings", "nameIdentifierFormat")
	if err != nil {
		return err
	}
	known.Extra = extra
	*s = SAMLConfiguration(known)
	return nil
}

// Outcome es el resultado de una regla: el usuario y el contexto actualizados.
type Outcome struct {
	User    IdentityRecord `json:"user"`
	Context AuthContext    `json:"context"`
}
