package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/models"
)

// RequireCapability checks the caller's role against the capability table.
// It must run after Protected.
func RequireCapability(section models.Section, action models.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFrom(c)
		if !ok {
			return common.ErrMissingToken
		}
		if !caller.Role.Can(section, action) {
			return fmt.Errorf("%w: role %s cannot %s %s", common.ErrForbidden, caller.Role, action, section)
		}
		return c.Next()
	}
}
