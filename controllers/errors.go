package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/middleware"
	"github.com/meinhoongagan/trucktrack/services"
	"github.com/meinhoongagan/trucktrack/utils"
)

// ErrorHandler renders every error returned by a handler or middleware as
// {"error": code, "message": text}. Internal errors are logged and their
// details withheld from the client.
func ErrorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := common.StatusCode(err)
		code := common.Code(err)
		message := err.Error()

		var fe *fiber.Error
		if errors.As(err, &fe) && code == "InternalError" {
			code = strings.ReplaceAll(fiberutils.StatusMessage(fe.Code), " ", "")
		}

		if status >= fiber.StatusInternalServerError && fe == nil {
			log.Error(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.Locals("requestid"),
				"err", err,
			)
			if status == fiber.StatusInternalServerError {
				message = "internal server error"
			}
		}

		requestID, _ := c.Locals("requestid").(string)
		return c.Status(status).JSON(utils.ErrorResponse{
			Error:     code,
			Message:   message,
			RequestID: requestID,
		})
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrValidation}, args...)...)
}

// parseBody decodes the JSON request body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return badRequest("cannot parse request body: %v", err)
	}
	return nil
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id %q", c.Params("id"))
	}
	return uint(id), nil
}

func callerOf(c *fiber.Ctx) (services.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return services.Caller{}, common.ErrMissingToken
	}
	return caller, nil
}
