package portal

import (
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
)

// Identity names a portal and the archetype whose capabilities it unlocks.
type Identity struct {
	Name        string           `json:"name" yaml:"name"`
	DisplayName string           `json:"display_name" yaml:"display_name"`
	Archetype   models.Archetype `json:"archetype" yaml:"archetype"`
}

// IdentityFor returns the identity of a built-in archetype.
func IdentityFor(a models.Archetype) Identity {
	return Identity{
		Name:        string(a),
		DisplayName: a.DisplayName(),
		Archetype:   a,
	}
}

// DefaultIdentities returns the ecosystem's portals in registration order.
func DefaultIdentities() []Identity {
	ids := make([]Identity, len(models.Archetypes))
	for i, a := range models.Archetypes {
		ids[i] = IdentityFor(a)
	}
	return ids
}
