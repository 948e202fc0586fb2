package dto

// Data Transfer Objects for signup and token issuance

// SignupRequest: payload for user registration. Password is optional; users
// authenticate with the mailed confirmation code.
type SignupRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Password  string `json:"password"`
}

// SignupResponse echoes the registered identity; the confirmation code
// itself only ever travels out-of-band.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code for a bearer token
type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse: the signed bearer token
type TokenResponse struct {
	Token string `json:"token"`
}
