package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/auth"
	"github.com/jason-s-yu/friendgraph/internal/middleware"
)

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, email, password string) (string, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler handles user login requests. It expects a JSON payload with email and password,
// and returns a JSON response with an authentication token if the login is successful.
//
// Request payload:
//
//	{
//	  "email": "someone@example.com",
//	  "password": "password"
//	}
//
// Response payload:
//
//	{
//	  "token": "{jwt}"
//	}
//
// The token is also sent via the Cookie header.
func LoginHandler(logger logrus.FieldLogger, users Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload")
			return
		}

		token, err := users.AuthenticateUser(r.Context(), req.Email, req.Password)
		if err != nil {
			middleware.Logger(r.Context(), logger).WithError(err).Info("failed to authenticate user")
			writeError(w, http.StatusForbidden, "FORBIDDEN", "authentication failed")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    token,
			HttpOnly: true,
			Path:     "/",
			MaxAge:   auth.TokenExpireSeconds(),
		})
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}
