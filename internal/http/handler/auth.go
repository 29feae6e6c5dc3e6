package handler

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"storeit/internal/http/middleware"
	"storeit/internal/service"
)

type signUpRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type signInRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	AccountID string `json:"accountId"`
	Passcode  string `json:"password"`
}

// SignUp registers a new account (or re-enters an existing one), creates the
// user record, and dispatches an email OTP.
func SignUp(identity service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signUpRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		accountID, err := identity.CreateAccount(c.UserContext(), req.FullName, req.Email)
		if err != nil {
			return writeAuthError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"accountId": accountID})
	}
}

// SignIn starts a sign-in for an existing user by dispatching an email OTP.
func SignIn(identity service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		accountID, err := identity.SignIn(c.UserContext(), req.Email)
		if err != nil {
			return writeAuthError(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{"accountId": accountID})
	}
}

// ResendOTP dispatches a fresh email OTP for the given address.
func ResendOTP(identity service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		accountID, err := identity.SendEmailOTP(c.UserContext(), req.Email)
		if err != nil {
			return writeAuthError(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{"accountId": accountID})
	}
}

// Verify exchanges an account id and OTP passcode for a session. On success
// the session secret is set as an HTTP-only cookie; on failure no cookie is
// written.
func Verify(identity service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req verifyRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.AccountID == "" || req.Passcode == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "accountId and password are required")
		}

		token, err := identity.VerifySecret(c.UserContext(), req.AccountID, req.Passcode)
		if err != nil {
			if errors.Is(err, service.ErrVerifyFailed) {
				return writeError(c, fiber.StatusUnauthorized, "VERIFY_FAILED", "failed to verify OTP")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		setSessionCookie(c, token.Secret, token.ExpiresAt)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"sessionId": token.SessionID})
	}
}

// Me returns the authenticated user resolved by the session middleware.
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.Principal(c)
		if user == nil {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "sign in required")
		}
		return c.Status(fiber.StatusOK).JSON(user)
	}
}

// SignOut deletes the current session and clears the cookie. The client is
// always pointed back to the sign-in page, even when session deletion fails;
// such failures are logged and otherwise swallowed.
func SignOut(identity service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Cookies(middleware.SessionCookieName)

		if err := identity.SignOut(c.UserContext(), secret); err != nil {
			rid, _ := c.Locals(middleware.RequestIDLocalKey).(string)
			_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
				"level":      "warn",
				"msg":        "sign-out failed",
				"request_id": rid,
				"error":      err.Error(),
			})
		}

		clearSessionCookie(c)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"location": middleware.SignInLocation})
	}
}

func writeAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmailRequired):
		return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "email is required")
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, fiber.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrOTPDispatch):
		return writeError(c, fiber.StatusBadGateway, "OTP_DISPATCH_FAILED", "failed to send email OTP")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func setSessionCookie(c *fiber.Ctx, secret string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    secret,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
