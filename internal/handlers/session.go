package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/blazehunter/internal/middleware"
	"github.com/example/blazehunter/internal/services"
)

// SessionHandler logs admins in and out of the dashboard.
type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type loginRequest struct {
	Email string `json:"email"`
	Key   string `json:"key"`
}

// Login verifies the access key and returns a session token.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, session, err := h.sessions.Login(c.UserContext(), services.Credentials{Email: req.Email, Key: req.Key})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"email": session.Email,
		"role":  session.Role,
	})
}

// Current returns the session behind the request's token.
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return respondError(c, services.ErrSessionNotFound)
	}
	return c.JSON(fiber.Map{
		"email":      session.Email,
		"role":       session.Role,
		"senior":     session.IsSenior(),
		"cleanupRan": session.CleanupRan,
	})
}

// Logout drops the session.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return respondError(c, services.ErrSessionNotFound)
	}
	if err := h.sessions.Logout(c.UserContext(), session.ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
