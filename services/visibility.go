package services

import (
	"github.com/meinhoongagan/trucktrack/models"
)

// Caller is the authenticated user a request acts for.
type Caller struct {
	UserID   uint        `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Company  string      `json:"company"`
}

func (c Caller) sameCompany(company string) bool {
	return c.Company != "" && c.Company == company
}

// CanSeeTrip applies the role visibility rules to a trip whose Driver has
// been resolved:
//   - master_admin sees every trip
//   - admin sees trips driven by a driver of its own company
//   - user sees Active trips on the driver record linked to its account
func CanSeeTrip(c Caller, t *models.Trip) bool {
	switch c.Role {
	case models.RoleMasterAdmin:
		return true
	case models.RoleAdmin:
		return t.Driver != nil && c.sameCompany(t.Driver.Company)
	case models.RoleUser:
		return t.Status == models.TripActive &&
			t.Driver != nil && t.Driver.UserID != nil && *t.Driver.UserID == c.UserID
	}
	return false
}

// VisibleTrips filters trips down to the ones c may see.
func VisibleTrips(c Caller, trips []models.Trip) []models.Trip {
	out := make([]models.Trip, 0, len(trips))
	for i := range trips {
		if CanSeeTrip(c, &trips[i]) {
			out = append(out, trips[i])
		}
	}
	return out
}

// CanMutateTrip reports whether c may edit or delete t. Admins may not touch
// trips created by a master admin (no company), even when the driver
// belongs to their company.
func CanMutateTrip(c Caller, t *models.Trip) bool {
	switch c.Role {
	case models.RoleMasterAdmin:
		return true
	case models.RoleAdmin:
		return CanSeeTrip(c, t) && t.CompanyID != nil && c.sameCompany(*t.CompanyID)
	}
	return false
}

// CanCompleteTrip reports whether c may move t from Active to Completed.
// This is the one change a user account can make.
func CanCompleteTrip(c Caller, t *models.Trip) bool {
	if c.Role == models.RoleUser {
		return CanSeeTrip(c, t) && t.Status == models.TripActive
	}
	return CanMutateTrip(c, t)
}
