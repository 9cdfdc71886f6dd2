// Package auth guards the renewal HTTP surface.
//
// Callers authenticate with an API key (X-API-Key) or an HS256 bearer JWT.
// CompositeAuthenticator tries both. RoleAuthorizer then maps the requested
// action (for example ActionRenew) to the role an identity must hold.
// Middleware wires the two into an http.Handler chain.
package auth
