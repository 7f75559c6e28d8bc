package model

// User is an account that can own documents. PasswordHash and RefreshToken
// never leave the service layer.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	RoleID       string `json:"-"`
	RefreshToken string `json:"-"`
}

// UserWithRole joins a user with its resolved role name, as consumed by the
// auth middleware and the access engine.
type UserWithRole struct {
	User
	Role string `json:"role"`
}

// Role is a named permission set. Authority is carried by the permissions
// table, not by the role name itself.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permission is one cell of the role/action allow-deny matrix.
// Unique per (role, action); absent entries deny.
type Permission struct {
	ID      string `json:"id"`
	RoleID  string `json:"role_id"`
	Action  Action `json:"action"`
	Allowed bool   `json:"allowed"`
}
