// Package domain translates MCP tool calls into story engine operations.
//
// Stateless tools take their whole working set in the request and return a
// report. Store-backed tools go through the story application service, so
// promotion and packaging run against persisted events and scenes.
//
// Wire shapes are snake_case entries defined here and converted to domain
// records at the boundary.
package domain
