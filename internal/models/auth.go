package models

// AuthResponse is the body of a successful POST /auth/login/.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// SignupResponse is the body of a successful POST /auth/signup/.
type SignupResponse struct {
	Message string `json:"message"`
}

// LoginForm holds login input. Validated before any network call.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupForm holds sign-up input. Validated before any network call.
type SignupForm struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
