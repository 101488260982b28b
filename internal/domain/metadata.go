package domain

import "maps"

// Metadata es un mapa libre de atributos de perfil.
type Metadata map[string]any

// Clone devuelve una copia superficial; nil produce un mapa vacío.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}
