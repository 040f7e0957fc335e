package auth

// Scopes understood by the operator API.
const (
	ScopeActivitiesRead = "activities:read"
)
