package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	version string
}

func NewHealthHandler(db *gorm.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health reports service status and database reachability.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	dbStatus := "connected"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
	}

	return c.JSON(fiber.Map{
		"service":  "TruckTrack API",
		"version":  h.version,
		"status":   "healthy",
		"database": dbStatus,
	})
}
