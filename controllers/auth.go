package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/services"
)

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Register godoc
// @Summary Register a new account
// @Description Stores an unverified user and emails a one-time code
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "Registration"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	pending, err := h.identity.Register(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":                 "Registration successful. Check your email for the verification code.",
		"requiresOtpVerification": true,
		"email":                   pending.Email,
	})
}

// VerifyOTP godoc
// @Summary Verify a registration code
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var in struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := parseBody(c, &in); err != nil {
		return err
	}

	if err := h.identity.VerifyOTP(c.UserContext(), in.Email, in.OTP); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Email verified successfully. You can now log in."})
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} services.LoginResult
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &in); err != nil {
		return err
	}

	res, err := h.identity.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Capabilities returns the caller's section table so clients can hide what
// the server would refuse anyway.
func (h *AuthHandler) Capabilities(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":         caller,
		"role":         caller.Role,
		"capabilities": caller.Role.Capabilities(),
	})
}
