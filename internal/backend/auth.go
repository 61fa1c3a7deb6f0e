package backend

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/model"
)

// Credentials are the operator's login details.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a backend session.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	payload, err := marshal("login", creds)
	if err != nil {
		return Session{}, err
	}
	var out loginResponse
	err = c.do(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        "/login",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		anonymous:   true,
	}, &out)
	if err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return Session{}, apperr.New(apperr.CodeServer, "login response carried no token")
	}
	return Session{Token: out.Token, User: out.User}, nil
}
