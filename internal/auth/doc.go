// Package auth guards the inventory HTTP API with bearer tokens.
//
// Tokens are HS256 JWTs signed with the configured auth.jwt_secret. The
// "sub" claim names the caller and is carried through the request context:
//
//	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
//	token, err := verifier.Generate("cli", cfg.Auth.TokenTTL)
//
//	mux.Handle("POST /api/items", auth.RequireToken(verifier, logger)(h))
//
// When no secret is configured the server passes a nil verifier and
// RequireToken lets every request through.
package auth
