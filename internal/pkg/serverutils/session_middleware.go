package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// SessionHeader carries the opaque per-browser correlation id. It scopes
	// state to one browser and nothing more; there is no authentication.
	SessionHeader = "X-Session-Id"

	SessionLocal = "session_id"
)

// SessionMiddleware resolves the session id for the request: an existing
// well-formed id is reused, anything else gets a fresh one. The resolved id
// is echoed back so the browser can persist it.
func SessionMiddleware(ctx *fiber.Ctx) error {
	sessionId := ctx.Get(SessionHeader)
	if _, err := uuid.Parse(sessionId); err != nil {
		sessionId = uuid.NewString()
	}

	ctx.Locals(SessionLocal, sessionId)
	ctx.Set(SessionHeader, sessionId)
	return ctx.Next()
}

// SessionId reads the id resolved by SessionMiddleware.
func SessionId(ctx *fiber.Ctx) string {
	if sid, ok := ctx.Locals(SessionLocal).(string); ok {
		return sid
	}
	return ""
}
