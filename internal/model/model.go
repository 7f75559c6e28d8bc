package model

// Package model contains domain models/data structures.
// No business logic here.

// Action is a permission-controlled document operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action is one of the known permission actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Actor is the authenticated identity performing a request, derived from a
// session token. Immutable for the lifetime of the request.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
