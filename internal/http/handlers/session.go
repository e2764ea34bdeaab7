package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sidCookie = "sid"

// sessionID returns the caller's sid if it is a well-formed one.
func sessionID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if _, err := uuid.Parse(sid); err != nil {
		return ""
	}
	return sid
}

// ensureSID returns the caller's session id, issuing a new cookie when the
// request has none (or a malformed one).
func ensureSID(c *fiber.Ctx) string {
	if sid := sessionID(c); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
	})
	return sid
}

// backTo returns the form's "next" path when it is a local path, else fallback.
func backTo(c *fiber.Ctx, fallback string) string {
	next := c.FormValue("next")
	if len(next) < 1 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}
