// Package api provides the HTTP REST API for ClassTask Core.
//
// It exposes signup/login, the task CRUD surface, and a handful of public
// endpoints (health, feature flags, route index). Responses share one
// envelope shape; authorization failures are mapped so that a missing or
// bad credential is always 401, a known task owned by someone else is 403
// on mutation, and an unknown or malformed id is 404.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
