// Package api serves the inventory over HTTP.
//
// # Endpoints
//
//	GET    /health                         liveness
//	GET    /api/items                      list (?name=&min_quantity=&order=&fields=&limit=)
//	POST   /api/items                      create, honors Idempotency-Key
//	DELETE /api/items                      remove every item
//	GET    /api/items/{id}                 one item
//	PATCH  /api/items/{id}                 partial update
//	DELETE /api/items/{id}                 remove one item
//	POST   /api/items/{id}/sale            sell one unit
//	GET    /api/items/{id}/description     description rendered from Markdown
//	GET    /api/events                     SSE change stream (?resource=items/{id})
//	POST   /mcp                            MCP tools, see package mcp
//
// Order takes a field name, prefixed with "-" for descending, and may list
// several fields separated by commas.
//
// # Errors
//
// Failures are JSON objects of the form {"error": "..."}. Validation
// failures are 400, unknown items 404, an insert into an item 405, a sale
// at zero quantity 409 and storage failures 500.
//
// # Authentication
//
// When a verifier is configured, every method other than GET and HEAD on
// /api/items needs an "Authorization: Bearer <token>" header.
package api
