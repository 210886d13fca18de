package repository

import (
	"context"
	"fmt"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/pkg/logger"
)

type LoginResult struct {
	User   model.SessionUser
	Tokens model.TokenPair
}

type AuthRepository interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type authRepository struct {
	client APIClient
}

func NewAuthRepository(client APIClient) AuthRepository {
	return &authRepository{client: client}
}

type loginUser struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

type loginTokens struct {
	AccessToken       string `json:"access_token"`
	RefreshToken      string `json:"refresh_token"`
	AccessTokenCamel  string `json:"accessToken"`
	RefreshTokenCamel string `json:"refreshToken"`
}

func (t loginTokens) pair() model.TokenPair {
	p := model.TokenPair{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	if p.AccessToken == "" {
		p.AccessToken = t.AccessTokenCamel
	}
	if p.RefreshToken == "" {
		p.RefreshToken = t.RefreshTokenCamel
	}
	return p
}

type loginResponse struct {
	User   loginUser   `json:"user"`
	Tokens loginTokens `json:"tokens"`
	UserID int64       `json:"userId"`
	Token  string      `json:"token"`
	loginTokens
}

// Login posts credentials to auth/login. The user id may be absent from the
// response; callers fall back to the access token claims.
func (r *authRepository) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	logger.Debug("Posting login", map[string]interface{}{
		"email": email,
	})

	resp, err := r.client.Post(ctx, "auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, err
	}

	var body loginResponse
	if err := decodeObject(resp.Data, &body); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	result := &LoginResult{
		User: model.SessionUser{
			UserID: firstNonZero(body.User.UserID, body.User.ID, body.UserID),
			Email:  body.User.Email,
			Name:   body.User.Name,
			Phone:  body.User.Phone,
		},
		Tokens: body.Tokens.pair(),
	}
	if result.Tokens.AccessToken == "" {
		result.Tokens = body.loginTokens.pair()
	}
	if result.Tokens.AccessToken == "" {
		result.Tokens.AccessToken = body.Token
	}
	if result.User.Email == "" {
		result.User.Email = email
	}
	return result, nil
}

func firstNonZero(ids ...int64) int64 {
	for _, id := range ids {
		if id != 0 {
			return id
		}
	}
	return 0
}

