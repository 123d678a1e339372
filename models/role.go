package models

// Role is the access level carried in a user's token.
type Role string

const (
	RoleMasterAdmin Role = "master_admin"
	RoleAdmin       Role = "admin"
	RoleUser        Role = "user"
)

// ParseRole validates a role name. An empty name is the default user role.
func ParseRole(name string) (Role, bool) {
	switch Role(name) {
	case "":
		return RoleUser, true
	case RoleMasterAdmin, RoleAdmin, RoleUser:
		return Role(name), true
	}
	return "", false
}

// Privileged reports whether registering this role requires a shared key.
func (r Role) Privileged() bool {
	return r == RoleMasterAdmin || r == RoleAdmin
}

// Section is an area of the application a capability applies to.
type Section string

const (
	SectionDashboard       Section = "dashboard"
	SectionTrips           Section = "trips"
	SectionTracking        Section = "tracking"
	SectionDrivers         Section = "drivers"
	SectionVehicles        Section = "vehicles"
	SectionCustomers       Section = "customers"
	SectionExpenses        Section = "expenses"
	SectionReports         Section = "reports"
	SectionProof           Section = "proof"
	SectionAdminManagement Section = "adminManagement"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var allSections = []Section{
	SectionDashboard,
	SectionTrips,
	SectionTracking,
	SectionDrivers,
	SectionVehicles,
	SectionCustomers,
	SectionExpenses,
	SectionReports,
	SectionProof,
	SectionAdminManagement,
}

var crud = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// capabilities is the single source of truth for both the server middleware
// and the /api/capabilities endpoint used by clients for UI gating.
var capabilities = map[Role]map[Section][]Action{
	RoleMasterAdmin: grantAll(),
	RoleAdmin:       grantAll(SectionAdminManagement),
	RoleUser: {
		SectionTrips:     {ActionRead, ActionUpdate},
		SectionTracking:  {ActionRead},
		SectionCustomers: {ActionRead},
		SectionProof:     {ActionRead, ActionCreate},
	},
}

func grantAll(except ...Section) map[Section][]Action {
	out := make(map[Section][]Action, len(allSections))
outer:
	for _, s := range allSections {
		for _, e := range except {
			if s == e {
				continue outer
			}
		}
		out[s] = crud
	}
	return out
}

// Can reports whether the role may perform action on section.
func (r Role) Can(section Section, action Action) bool {
	for _, a := range capabilities[r][section] {
		if a == action {
			return true
		}
	}
	return false
}

// Capabilities returns a copy of the role's section table.
func (r Role) Capabilities() map[Section][]Action {
	out := make(map[Section][]Action, len(capabilities[r]))
	for s, actions := range capabilities[r] {
		out[s] = append([]Action(nil), actions...)
	}
	return out
}
