package config

import "book-rental-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
)

// EndpointSecurity is what a method requires of its caller. An empty Roles
// list admits any authenticated role.
type EndpointSecurity struct {
	Level SecurityLevel
	Roles []domain.Role
}

var (
	anyUser      = EndpointSecurity{Level: SecurityAccess}
	customerOnly = EndpointSecurity{Level: SecurityAccess, Roles: []domain.Role{domain.RoleCustomer}}
	adminOnly    = EndpointSecurity{Level: SecurityAccess, Roles: []domain.Role{domain.RoleAdmin}}
)

// EndpointSecurityConfig maps gRPC methods to their requirements
var EndpointSecurityConfig = map[string]EndpointSecurity{
	// ReturnService - Public
	"/bookrental.v1.ReturnService/ListReturnStatuses": {Level: SecurityPublic},

	// ReturnService - Customer
	"/bookrental.v1.ReturnService/ListReturnableOrders":  customerOnly,
	"/bookrental.v1.ReturnService/ListMyReturnRequests":  customerOnly,
	"/bookrental.v1.ReturnService/CreateReturnRequest":   customerOnly,
	"/bookrental.v1.ReturnService/ConfirmReturnShipment": customerOnly,

	// ReturnService - Customer or admin
	"/bookrental.v1.ReturnService/CancelReturnRequest": anyUser,
	"/bookrental.v1.ReturnService/GetReturnRequest":    anyUser,

	// ReturnService - Admin
	"/bookrental.v1.ReturnService/ListReturnRequests": adminOnly,
	"/bookrental.v1.ReturnService/UpdateReturnStatus": adminOnly,

	// LedgerService / NotificationService
	"/bookrental.v1.LedgerService/GetTransactions":            anyUser,
	"/bookrental.v1.NotificationService/GetNotifications":     anyUser,
	"/bookrental.v1.NotificationService/MarkNotificationRead": anyUser,
}

// GetEndpointSecurity returns the requirements for a given method
func GetEndpointSecurity(method string) EndpointSecurity {
	if sec, exists := EndpointSecurityConfig[method]; exists {
		return sec
	}
	// Default to highest security for unknown endpoints
	return adminOnly
}

// Allows reports whether role satisfies the endpoint's role list.
func (e EndpointSecurity) Allows(role domain.Role) bool {
	if len(e.Roles) == 0 {
		return true
	}
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}
