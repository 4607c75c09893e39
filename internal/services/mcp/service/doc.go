// Package service wires the story MCP tools to a transport.
//
// It runs MCP over stdio or streamable HTTP and leaves tool semantics to the
// handlers in the mcp/domain package.
package service
