package model

import "time"

// SessionUser is the "user" record; its presence is what makes a session authenticated
type SessionUser struct {
	UserID         int64      `json:"userId"`
	Email          string     `json:"email,omitempty"`
	Name           string     `json:"name,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
