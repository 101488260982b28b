package service

import (
	"maps"

	"account-linker/internal/domain"
)

// MergeUserMetadata combina en superficie; ante la misma clave gana la primaria.
func MergeUserMetadata(secondary, primary domain.Metadata) domain.Metadata {
	merged := make(domain.Metadata, len(secondary)+len(primary))
	maps.Copy(merged, secondary)
	maps.Copy(merged, primary)
	return merged
}

// prepareSecondary garantiza mapas no nulos antes de escribir en el directorio.
func prepareSecondary(user domain.IdentityRecord) domain.IdentityRecord {
	if user.AppMetadata == nil {
		user.AppMetadata = domain.Metadata{}
	}
	if user.UserMetadata == nil {
		user.UserMetadata = domain.Metadata{}
	}
	return user
}
