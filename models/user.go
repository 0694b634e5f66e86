package models

import "time"

// User represents an account in the system
// Password is stored hashed (bcrypt); never return plain in JSON responses
type User struct {
	ID        int       `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      *string   `json:"name" db:"name"`
	Password  string    `json:"-" db:"password"` // Hashed; omitted from JSON
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserSummary is the public shape returned by auth and profile endpoints.
type UserSummary struct {
	ID    int     `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Role  string  `json:"role"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// RegisterRequest is the self-registration body. An unrecognized or absent
// role is floored to "user" rather than rejected; see DESIGN.md.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     *string `json:"name"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// CreateUserRequest is the admin-only user creation body. Unlike
// registration, an invalid role here is rejected.
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     *string `json:"name"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role"`
}

// UpdateUserRequest carries a partial update; only supplied fields change.
type UpdateUserRequest struct {
	Email    OptionalString `json:"email"`
	Name     OptionalString `json:"name"`
	Password OptionalString `json:"password"`
	Role     OptionalString `json:"role"`
}

// UpdateProfileRequest is the self-service subset: no role changes.
type UpdateProfileRequest struct {
	Email    OptionalString `json:"email"`
	Name     OptionalString `json:"name"`
	Password OptionalString `json:"password"`
}
