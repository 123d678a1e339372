package common

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	// request errors
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")

	// identity errors
	ErrInvalidRoleKey        = errors.New("invalid role key")
	ErrNoPendingRegistration = errors.New("no pending registration")
	ErrOtpExpired            = errors.New("otp expired")
	ErrOtpMismatch           = errors.New("otp mismatch")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountUnverified     = errors.New("account not verified")
	ErrMissingToken          = errors.New("missing token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrForbidden             = errors.New("forbidden")
	ErrEmailDeliveryFailed   = errors.New("email delivery failed")

	// booking errors
	ErrFullyBooked    = errors.New("date is fully booked")
	ErrResourceBooked = errors.New("driver or vehicle already booked")

	// external services
	ErrRouteUnavailable = errors.New("route unavailable")
)

type errorKind struct {
	err    error
	status int
	code   string
}

// order matters only for wrapped chains that carry two sentinels
var kinds = []errorKind{
	{ErrValidation, fiber.StatusBadRequest, "ValidationError"},
	{ErrOtpExpired, fiber.StatusBadRequest, "OtpExpired"},
	{ErrOtpMismatch, fiber.StatusBadRequest, "OtpMismatch"},
	{ErrNoPendingRegistration, fiber.StatusBadRequest, "NoPendingRegistration"},
	{ErrDuplicate, fiber.StatusConflict, "DuplicateError"},
	{ErrFullyBooked, fiber.StatusConflict, "FullyBooked"},
	{ErrResourceBooked, fiber.StatusConflict, "ResourceBooked"},
	{ErrInvalidCredentials, fiber.StatusUnauthorized, "InvalidCredentials"},
	{ErrMissingToken, fiber.StatusUnauthorized, "MissingToken"},
	{ErrInvalidOrExpiredToken, fiber.StatusUnauthorized, "InvalidOrExpiredToken"},
	{ErrInvalidRoleKey, fiber.StatusForbidden, "InvalidRoleKey"},
	{ErrAccountUnverified, fiber.StatusForbidden, "AccountUnverified"},
	{ErrForbidden, fiber.StatusForbidden, "Forbidden"},
	{ErrNotFound, fiber.StatusNotFound, "NotFound"},
	{ErrEmailDeliveryFailed, fiber.StatusBadGateway, "EmailDeliveryFailed"},
	{ErrRouteUnavailable, fiber.StatusBadGateway, "RouteUnavailable"},
}

// StatusCode maps an error chain to the HTTP status returned to clients.
func StatusCode(err error) int {
	if k, ok := lookup(err); ok {
		return k.status
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// Code returns the machine-readable error name for err.
func Code(err error) string {
	if k, ok := lookup(err); ok {
		return k.code
	}
	return "InternalError"
}

func lookup(err error) (errorKind, bool) {
	if err == nil {
		return errorKind{}, false
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}
	return errorKind{}, false
}
