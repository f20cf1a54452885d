// Package mcp exposes the inventory as Model Context Protocol tools.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over the Streamable HTTP transport on a
// single endpoint:
//
//   - POST /mcp - initialize, tools/list, tools/call and notifications
//   - DELETE /mcp - terminate the session named by Mcp-Session-Id
//
// initialize returns an Mcp-Session-Id header that every later request must
// carry.
//
// # Tools
//
//   - list_items, get_item (items:read)
//   - add_item, update_item, sell_item, delete_item (items:write)
//
// Tool output is the JSON result as text content. Rejected input, missing
// items and empty stock come back as a result with isError set so the
// calling model can read the reason.
//
// # Authentication
//
// With no verifier configured every session gets both capabilities. With a
// verifier, initialize without a token yields a read-only session, a valid
// bearer token adds items:write, and an invalid token is refused:
//
//	Authorization: Bearer <token>
//
// # Usage
//
//	srv, err := mcp.NewServer(mcp.Config{Inventory: inv, Verifier: verifier})
//	if err != nil {
//	    return err
//	}
//	srv.RegisterRoutes(mux)
package mcp
