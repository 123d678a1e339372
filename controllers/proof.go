package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/services"
)

type ProofHandler struct {
	proofs *services.ProofService
}

func NewProofHandler(proofs *services.ProofService) *ProofHandler {
	return &ProofHandler{proofs: proofs}
}

// SubmitProof godoc
// @Summary Upload proof of delivery
// @Tags proofs
// @Accept multipart/form-data
// @Produce json
// @Param tripId formData int true "Trip ID"
// @Param file formData file true "Proof file"
// @Param notes formData string false "Notes"
// @Success 201 {object} models.Proof
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/proofs [post]
func (h *ProofHandler) SubmitProof(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	tripID, err := strconv.ParseUint(c.FormValue("tripId"), 10, 64)
	if err != nil || tripID == 0 {
		return badRequest("tripId must be a trip id")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest("cannot read file: %v", err)
	}
	defer f.Close()

	proof, err := h.proofs.Submit(c.UserContext(), caller, services.ProofUpload{
		TripID:   uint(tripID),
		Filename: fh.Filename,
		Body:     f,
		Notes:    c.FormValue("notes"),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(proof)
}

func (h *ProofHandler) GetProofs(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	proofs, err := h.proofs.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(proofs)
}
