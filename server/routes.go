package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.Health())

	// Discovery
	s.RegisterRouteFunc("GET "+RouteWellKnownAuthServer, s.WellKnownAuthorizationServer())
	s.RegisterRouteFunc("GET "+RouteWellKnownAuthServerMCP, s.WellKnownAuthorizationServer())
	s.RegisterRouteFunc("GET "+RouteWellKnownProtectedResource, s.WellKnownProtectedResource())
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, s.JWKS())

	// OAuth
	s.RegisterRouteFunc("POST "+RouteOAuthRegister, s.Register())
	s.RegisterRouteFunc("GET "+RouteOAuthAuthorize, s.Authorize())
	s.RegisterRouteFunc("POST "+RouteOAuthToken, s.Token())
	s.RegisterRouteFunc("GET "+RouteOAuthClient, s.ClientInfo())

	// Memory API
	s.RegisterRouteHandler("POST "+RouteMemoryStore, ChainMiddleware(s.StoreMemory(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMemorySearch, ChainMiddleware(s.SearchMemories(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMemoryList, ChainMiddleware(s.ListMemories(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMemoryStats, ChainMiddleware(s.MemoryStats(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteMemoryDelete, ChainMiddleware(s.DeleteMemory(), s.APIMiddleware()...))

	if s.metricsHandler != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metricsHandler)
	}
}
