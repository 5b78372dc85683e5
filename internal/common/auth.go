package common

import (
	"crypto/subtle"
	"errors"

	"github.com/charmbracelet/log"
)

const DefaultToken = "valid-token"

var ErrInvalidToken = errors.New("invalid token")

type User struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Authenticator checks bearer tokens, SOAP authTokens and SFTP passwords
// against one shared secret.
type Authenticator struct {
	token string
	user  User
}

func NewAuthenticator(token string) *Authenticator {
	if token == "" {
		token = DefaultToken
	}
	return &Authenticator{
		token: token,
		user: User{
			Username: "testuser",
			Email:    "testuser@example.com",
			Roles:    []string{"admin", "user"},
		},
	}
}

func (a *Authenticator) Validate(token string) (*User, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		log.Debug("rejected auth token", "length", len(token))
		return nil, ErrInvalidToken
	}

	user := a.user
	user.Roles = append([]string(nil), a.user.Roles...)
	return &user, nil
}
