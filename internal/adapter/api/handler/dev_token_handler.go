package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"hajzi/internal/domain/entity"
	"hajzi/internal/infrastructure/firebase"
	"hajzi/pkg/errors"
	"hajzi/pkg/response"
)

// DevUserRegistry stores development users so their display names resolve.
type DevUserRegistry interface {
	Register(ctx context.Context, user *entity.User) error
}

// DevTokenHandler issues development tokens. It is only routed when the
// in-memory store runs outside production.
type DevTokenHandler struct {
	users DevUserRegistry
}

func NewDevTokenHandler(users DevUserRegistry) *DevTokenHandler {
	return &DevTokenHandler{
		users: users,
	}
}

type devTokenRequest struct {
	Email    string `query:"email" json:"email" validate:"required,email"`
	Username string `query:"username" json:"username" validate:"omitempty,max=64"`
}

// GenerateToken returns a token for the given email, registering the user
// when a username is supplied.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	email := entity.NormalizeIdentity(req.Email)
	if req.Username != "" {
		if err := h.users.Register(c.Request().Context(), &entity.User{Email: email, Username: req.Username}); err != nil {
			return response.Error(c, err)
		}
	}

	return response.Success(c, map[string]interface{}{
		"token":    firebase.DevTokenPrefix + email,
		"email":    email,
		"username": req.Username,
	})
}
