package entities

// DefaultEntityTypes are the entity categories the encyclopedia ships with.
// Records may carry other types; these drive CLI hints and per-type stats.
var DefaultEntityTypes = []EntityType{
	{
		Name:        "deity",
		Description: "Gods, goddesses and other divine beings",
	},
	{
		Name:        "hero",
		Description: "Mortal or semi-divine heroes and legendary figures",
	},
	{
		Name:        "creature",
		Description: "Monsters, spirits, beasts and mythical races",
	},
	{
		Name:        "place",
		Description: "Realms, underworlds, sacred sites and mythic geography",
	},
	{
		Name:        "item",
		Description: "Weapons, artifacts and other named objects",
	},
	{
		Name:        "concept",
		Description: "Cosmological ideas, rituals and abstract principles",
	},
}

// DefaultTypeNames returns just the names of default types for quick lookup.
func DefaultTypeNames() []string {
	names := make([]string, len(DefaultEntityTypes))
	for i, t := range DefaultEntityTypes {
		names[i] = t.Name
	}
	return names
}

// IsDefaultType checks if a type name is a built-in default.
func IsDefaultType(name string) bool {
	for _, t := range DefaultEntityTypes {
		if t.Name == name {
			return true
		}
	}
	return false
}
