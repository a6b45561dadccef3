package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth = "/health"

	// Discovery
	RouteWellKnownAuthServer        = "/.well-known/oauth-authorization-server"
	RouteWellKnownAuthServerMCP     = RouteWellKnownAuthServer + "/mcp"
	RouteWellKnownProtectedResource = "/.well-known/oauth-protected-resource"
	RouteWellKnownJWKS              = "/.well-known/jwks.json"

	// OAuth 2.1 authorization server
	RouteOAuthRegister  = "/oauth/register"
	RouteOAuthAuthorize = "/oauth/authorize"
	RouteOAuthToken     = "/oauth/token"
	RouteOAuthClient    = "/oauth/clients/{client_id}"

	// Memory API (authenticated)
	RouteMemoryStore  = "/memory/store"
	RouteMemorySearch = "/memory/search"
	RouteMemoryList   = "/memory/list"
	RouteMemoryStats  = "/memory/stats"
	RouteMemoryDelete = "/memory/{id}"

	RouteMetrics = "/metrics"
)
