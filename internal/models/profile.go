package models

// Profile is a user's public profile.
type Profile struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name"`
	About     string `json:"about"`
	AvatarURL string `json:"avatar_url"`
}

// Presence is a user's liveness as reported by the server.
type Presence struct {
	Email    string `json:"email"`
	Online   Flag   `json:"online"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Credentials is the body of login and register calls.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the response of a successful login.
type AuthResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
}
