package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/services"
)

type DashboardHandler struct {
	reports *services.Reports
}

func NewDashboardHandler(reports *services.Reports) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

// GetStats godoc
// @Summary Dashboard counters
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardStats
// @Router /api/dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	stats, err := h.reports.Dashboard(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) MonthlyReport(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var in struct {
		Month string `json:"month"`
	}
	if err := parseBody(c, &in); err != nil {
		return err
	}
	report, err := h.reports.Monthly(c.UserContext(), caller, in.Month)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *DashboardHandler) WeeklyReport(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var in struct {
		Week string `json:"week"`
	}
	if err := parseBody(c, &in); err != nil {
		return err
	}
	report, err := h.reports.Weekly(c.UserContext(), caller, in.Week)
	if err != nil {
		return err
	}
	return c.JSON(report)
}
