package entities

// EntityType describes a category of mythological entity.
type EntityType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
