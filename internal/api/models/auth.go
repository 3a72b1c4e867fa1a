package models

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Verify reports whether the presented token is valid.
type Verify struct {
	Valid bool `json:"valid"`
}
