package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeInvalidTransition, "transition is not allowed")
	err := WithMetadata(CodeInvalidTransition, "canon -> draft", map[string]string{"from": "canon", "to": "draft"})

	if !stderrors.Is(err, sentinel) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeSchemaValidation, "other")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestGetCodeUnwrapsChain(t *testing.T) {
	inner := Wrap(CodeNotFound, "event missing", stderrors.New("no rows"))
	wrapped := fmt.Errorf("load event: %w", inner)

	if got := GetCode(wrapped); got != CodeNotFound {
		t.Fatalf("code = %s, want %s", got, CodeNotFound)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
	if !stderrors.Is(inner, inner.Cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeSchemaValidation, codes.InvalidArgument},
		{CodeInvalidTransition, codes.FailedPrecondition},
		{CodeImmutabilityViolation, codes.FailedPrecondition},
		{CodeCanonGateRejected, codes.FailedPrecondition},
		{CodeValidationFailure, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeAlreadyExists, codes.AlreadyExists},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Fatalf("%s grpc code = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestToGRPCStatusCarriesErrorInfo(t *testing.T) {
	err := WithMetadata(CodeImmutabilityViolation, "event is canon", map[string]string{"event_id": "evt-1"})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	var info *errdetails.ErrorInfo
	for _, detail := range st.Details() {
		if candidate, ok := detail.(*errdetails.ErrorInfo); ok {
			info = candidate
		}
	}
	if info == nil {
		t.Fatal("expected error info detail")
	}
	if info.GetReason() != string(CodeImmutabilityViolation) {
		t.Fatalf("reason = %s, want %s", info.GetReason(), CodeImmutabilityViolation)
	}
	if info.GetMetadata()["event_id"] != "evt-1" {
		t.Fatalf("metadata event_id = %q, want %q", info.GetMetadata()["event_id"], "evt-1")
	}
}
