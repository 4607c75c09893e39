package domain

import "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/timeouts"

// toolCallTimeout caps the time for a single store-backed tool call.
const toolCallTimeout = timeouts.ToolCall
