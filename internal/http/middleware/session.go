package middleware

import (
	"github.com/gofiber/fiber/v2"

	"storeit/internal/model"
	"storeit/internal/service"
)

const (
	// SessionCookieName is the cookie carrying the opaque session secret.
	SessionCookieName = "storeit-session"
	// PrincipalLocalKey is the key under which the authenticated user is
	// stored in Fiber's context locals.
	PrincipalLocalKey = "principal"
	// SignInLocation is where unauthenticated browsers are pointed to.
	SignInLocation = "/sign-in"
)

type unauthenticatedPayload struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Location string `json:"location"`
}

// Session authenticates requests via the session cookie. The principal is
// resolved once per request and stored in locals; handlers behind this
// middleware never see unauthenticated requests.
//
// Missing cookie, unknown secret, expired session, and a session without a
// matching user record are deliberately indistinguishable to the client: all
// answer 401 with the sign-in location.
func Session(identity service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Cookies(SessionCookieName)

		user, err := identity.CurrentUser(c.UserContext(), secret)
		if err != nil {
			return unauthenticated(c)
		}

		c.Locals(PrincipalLocalKey, user)
		return c.Next()
	}
}

// Principal returns the authenticated user stored by Session, or nil.
func Principal(c *fiber.Ctx) *model.User {
	if u, ok := c.Locals(PrincipalLocalKey).(*model.User); ok {
		return u
	}
	return nil
}

func unauthenticated(c *fiber.Ctx) error {
	rid, _ := c.Locals(RequestIDLocalKey).(string)
	payload := unauthenticatedPayload{
		RequestID: rid,
		Location:  SignInLocation,
	}
	payload.Error.Code = "UNAUTHENTICATED"
	payload.Error.Message = "sign in required"
	return c.Status(fiber.StatusUnauthorized).JSON(payload)
}
