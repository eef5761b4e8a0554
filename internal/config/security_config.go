package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps HTTP route names to their required security
// level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"Health": SecurityPublic,

	// Reservations - Access Protected
	"CreateReservation":       SecurityAccess,
	"ReturnBook":              SecurityAccess,
	"GetReservation":          SecurityAccess,
	"ListReservations":        SecurityAccess,
	"ListReservationsByUser":  SecurityAccess,
	"ListActiveReservations":  SecurityAccess,
	"ListOverdueReservations": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(endpoint string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[endpoint]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
