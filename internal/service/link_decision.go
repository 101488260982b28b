package service

import "account-linker/internal/domain"

// DecisionKind enumera los resultados posibles de la reconciliación.
type DecisionKind string

const (
	DecisionNoAction   DecisionKind = "no_action"
	DecisionLink       DecisionKind = "link"
	DecisionAmbiguous  DecisionKind = "ambiguous"
	DecisionUnresolved DecisionKind = "unresolved"
)

// Decision es la salida pura del motor de reconciliación.
type Decision struct {
	Kind         DecisionKind           `json:"kind"`
	Primary      *domain.IdentityRecord `json:"primary,omitempty"`
	Secondary    *domain.IdentityRecord `json:"secondary,omitempty"`
	CandidateIDs []string               `json:"candidate_ids,omitempty"`
}

// Decide elige entre no hacer nada, vincular secundaria -> primaria, o reportar ambigüedad.
// candidates ya viene filtrado a emails verificados y en el orden del directorio:
// si hubo vinculaciones previas, el primero es la cuenta primaria existente.
func Decide(user domain.IdentityRecord, candidates []domain.IdentityRecord) Decision {
	switch n := len(candidates); {
	case n == 1:
		return Decision{Kind: DecisionNoAction}
	case n == 2:
		return decidePair(user, candidates[0], candidates[1])
	default:
		return Decision{Kind: DecisionAmbiguous, CandidateIDs: userIDs(candidates)}
	}
}

func decidePair(user, first, second domain.IdentityRecord) Decision {
	if len(first.Identities) >= 1 {
		if len(user.Identities) > 1 && user.UserID == first.UserID {
			return Decision{Kind: DecisionNoAction}
		}
		if len(user.Identities) == 1 {
			// Incluso si user es first: el directorio rechaza el auto-vínculo y el login falla.
			return link(user, first)
		}
		// Usuario con varias identidades que no es el primero: el directorio no define primaria.
		return Decision{
			Kind:         DecisionUnresolved,
			CandidateIDs: []string{first.UserID, second.UserID},
		}
	}

	if first.UserID == user.UserID {
		return link(user, second)
	}
	return link(user, first)
}

func link(secondary, primary domain.IdentityRecord) Decision {
	return Decision{
		Kind:      DecisionLink,
		Primary:   &primary,
		Secondary: &secondary,
	}
}

func userIDs(records []domain.IdentityRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.UserID)
	}
	return ids
}

func verifiedOnly(records []domain.IdentityRecord) []domain.IdentityRecord {
	out := make([]domain.IdentityRecord, 0, len(records))
	for _, r := range records {
		if r.EmailVerified {
			out = append(out, r)
		}
	}
	return out
}
