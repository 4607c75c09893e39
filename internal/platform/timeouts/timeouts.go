// Package timeouts defines shared timeout constants used across binaries.
package timeouts

import "time"

// ToolCall caps the time allowed for a single store-backed MCP tool call.
const ToolCall = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers and telemetry exporters wait to drain
// during graceful shutdown.
const Shutdown = 5 * time.Second
