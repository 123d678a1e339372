package middleware

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/services"
)

const callerKey = "caller"

// Protected verifies the bearer token and stores the resolved caller in
// the request locals. The caller's role and company come from the stored
// user, not from the token claims.
func Protected(secret []byte, identity *services.IdentityService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    secret,
		SigningMethod: "HS256",
		ErrorHandler:  jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return common.ErrInvalidOrExpiredToken
			}

			caller, err := identity.ResolveCaller(c.UserContext(), token)
			if err != nil {
				return err
			}
			c.Locals(callerKey, *caller)
			return c.Next()
		},
	})
}

// jwtError tells a missing header apart from a bad token
func jwtError(c *fiber.Ctx, _ error) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return common.ErrMissingToken
	}
	return common.ErrInvalidOrExpiredToken
}

// CallerFrom returns the caller stored by Protected.
func CallerFrom(c *fiber.Ctx) (services.Caller, bool) {
	caller, ok := c.Locals(callerKey).(services.Caller)
	return caller, ok
}
