package enums

// CustomerRole identifies a role a customer or API actor can hold.
type CustomerRole string

const (
	RoleAdmin      CustomerRole = "admin"
	RoleRegistered CustomerRole = "registered"
	RoleGuest      CustomerRole = "guest"
)

func (r CustomerRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRegistered, RoleGuest:
		return true
	}
	return false
}

func ParseCustomerRole(value string) (CustomerRole, bool) {
	role := CustomerRole(value)
	return role, role.IsValid()
}
