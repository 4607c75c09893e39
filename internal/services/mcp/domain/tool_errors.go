package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// toolError wraps a handler failure. Domain errors are rendered through their
// gRPC status so the reason and record metadata reach the client.
func toolError(action string, err error) error {
	return fmt.Errorf("%s failed (%s): %w", action, describeError(err), err)
}

// describeError renders the ErrorInfo reason, the gRPC status code and the
// sorted metadata of a domain error.
func describeError(err error) string {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return string(apperrors.CodeUnknown)
	}
	st, ok := status.FromError(domainErr.ToGRPCStatus())
	if !ok {
		return string(domainErr.Code)
	}

	reason := string(domainErr.Code)
	var metadata map[string]string
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			reason = info.GetReason()
			metadata = info.GetMetadata()
			break
		}
	}

	parts := []string{reason, "grpc=" + st.Code().String()}
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+metadata[key])
	}
	return strings.Join(parts, " ")
}
