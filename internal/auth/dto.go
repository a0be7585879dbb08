package auth

// SignupRequest is the signup form payload.
type SignupRequest struct {
	Username  string `form:"username" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`
}

// LoginRequest is the login form payload.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// AdminRegisterRequest holds the credentials for a new superuser.
type AdminRegisterRequest struct {
	Username string
	Email    string
	Password string
}
