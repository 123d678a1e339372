package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/services"
)

type TripHandler struct {
	trips     *services.TripService
	estimator *services.Estimator
	log       logging.Logger
}

func NewTripHandler(trips *services.TripService, estimator *services.Estimator, log logging.Logger) *TripHandler {
	return &TripHandler{trips: trips, estimator: estimator, log: log}
}

// GetAllTrips godoc
// @Summary List trips visible to the caller
// @Tags trips
// @Produce json
// @Success 200 {array} models.Trip
// @Router /api/trips [get]
func (h *TripHandler) GetAllTrips(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	trips, err := h.trips.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(trips)
}

// GetTrip godoc
// @Summary Get a trip by ID
// @Tags trips
// @Produce json
// @Param id path int true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/trips/{id} [get]
func (h *TripHandler) GetTrip(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	trip, err := h.trips.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(trip)
}

// CreateTrip godoc
// @Summary Book a trip
// @Tags trips
// @Accept json
// @Produce json
// @Param trip body services.TripInput true "Trip"
// @Success 201 {object} models.Trip
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/trips [post]
func (h *TripHandler) CreateTrip(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var in services.TripInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	trip, err := h.trips.Create(c.UserContext(), caller, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(trip)
}

// UpdateTrip godoc
// @Summary Partially update a trip
// @Tags trips
// @Accept json
// @Produce json
// @Param id path int true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/trips/{id} [put]
func (h *TripHandler) UpdateTrip(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in services.TripInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	trip, err := h.trips.Update(c.UserContext(), caller, id, in)
	if err != nil {
		return err
	}
	return c.JSON(trip)
}

func (h *TripHandler) DeleteTrip(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.trips.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Availability reports whether a date still has a free driver and vehicle.
// The date defaults to today.
func (h *TripHandler) Availability(c *fiber.Ctx) error {
	avail, err := h.trips.Availability(c.UserContext(), c.Query("date"))
	if err != nil {
		return err
	}
	return c.JSON(avail)
}

type estimateRequest struct {
	OriginLat      *float64 `json:"origin_lat"`
	OriginLng      *float64 `json:"origin_lng"`
	DestinationLat *float64 `json:"destination_lat"`
	DestinationLng *float64 `json:"destination_lng"`
	Date           string   `json:"date"`
}

func point(lat, lng *float64) *services.LatLng {
	if lat == nil || lng == nil {
		return nil
	}
	return &services.LatLng{Lat: *lat, Lng: *lng}
}

// Estimate previews travel time, arrival, distance and price. A routing
// failure is not an error here: the client gets an unavailable estimate
// and can still book the trip.
func (h *TripHandler) Estimate(c *fiber.Ctx) error {
	var in estimateRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}

	est, err := h.estimator.Estimate(c.UserContext(),
		point(in.OriginLat, in.OriginLng),
		point(in.DestinationLat, in.DestinationLng),
		in.Date,
	)
	if errors.Is(err, common.ErrValidation) {
		return err
	}
	if err != nil {
		h.log.Warn(c.UserContext(), "estimate unavailable", "err", err)
		return c.JSON(services.Estimate{})
	}
	return c.JSON(est)
}
