package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/models"
)

// SetupProofRoutes configures proof-of-delivery routes
func SetupProofRoutes(api fiber.Router, h *controllers.ProofHandler, protected fiber.Handler) {
	proofs := api.Group("/proofs", protected)
	proofs.Get("/", can(models.SectionProof, models.ActionRead), h.GetProofs)
	proofs.Post("/", can(models.SectionProof, models.ActionCreate), h.SubmitProof)
}
