package domain

// NamedEntity is a directory row: a domain or user id with its display name.
type NamedEntity struct {
	ID   string
	Name string
}
