// Package logging provides rotating file-based structured logging,
// shared by the CLI, the HTTP surface, and the MCP stdio surface.
//
// The stdio surface must never write to stdout or stderr (see mcp.go); the
// HTTP surface and CLI additionally tee to stderr for interactive use.
package logging
