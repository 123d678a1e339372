package utils

import (
	"sort"

	"github.com/meinhoongagan/trucktrack/models"
)

// Availability is the booking state of one calendar date.
type Availability struct {
	Date             string `json:"date"`
	FullyBooked      bool   `json:"fullyBooked"`
	BookedDriverIDs  []uint `json:"bookedDriverIds"`
	BookedVehicleIDs []uint `json:"bookedVehicleIds"`
}

// DriverBooked reports whether id already has a committed trip on the date.
func (a Availability) DriverBooked(id uint) bool {
	return containsID(a.BookedDriverIDs, id)
}

// VehicleBooked reports whether id already has a committed trip on the date.
func (a Availability) VehicleBooked(id uint) bool {
	return containsID(a.BookedVehicleIDs, id)
}

// CheckAvailability decides whether date is fully booked. A date is fully
// booked when every driver or every vehicle already has a Pending or Active
// trip on it. Saturating either resource class blocks new trips, even when
// the other class has slack. With no drivers and no vehicles nothing can be
// exhausted, so the date is free.
func CheckAvailability(date string, drivers []models.Driver, vehicles []models.Vehicle, trips []models.Trip) Availability {
	bookedDrivers := map[uint]bool{}
	bookedVehicles := map[uint]bool{}
	for _, t := range trips {
		if t.Date != date || !t.Status.Committed() {
			continue
		}
		if t.DriverID != nil {
			bookedDrivers[*t.DriverID] = true
		}
		if t.VehicleID != nil {
			bookedVehicles[*t.VehicleID] = true
		}
	}

	allDrivers := len(drivers) > 0
	for _, d := range drivers {
		if !bookedDrivers[d.ID] {
			allDrivers = false
			break
		}
	}
	allVehicles := len(vehicles) > 0
	for _, v := range vehicles {
		if !bookedVehicles[v.ID] {
			allVehicles = false
			break
		}
	}

	return Availability{
		Date:             date,
		FullyBooked:      allDrivers || allVehicles,
		BookedDriverIDs:  sortedIDs(bookedDrivers),
		BookedVehicleIDs: sortedIDs(bookedVehicles),
	}
}

func sortedIDs(set map[uint]bool) []uint {
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
