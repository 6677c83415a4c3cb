package model

// TokenResponse is the body of a successful POST /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// RegisterRequest is posted as JSON to /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	FullName string `json:"full_name" form:"full_name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Role     string `json:"role" form:"role"`
}

// LoginRequest carries the credentials typed into the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}
