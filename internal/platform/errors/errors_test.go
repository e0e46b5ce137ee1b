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
	err := fmt.Errorf("apply: %w", New(CodeBelowFloor, "strength below floor"))
	if !stderrors.Is(err, New(CodeBelowFloor, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeInsufficientPoints, "")) {
		t.Fatal("expected mismatch for different code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(CodeCharacterNotFound, "gone"))); got != CodeCharacterNotFound {
		t.Fatalf("code = %s, want %s", got, CodeCharacterNotFound)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
}

func TestWrapMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeSnapshotInvalid, "decode snapshot", stderrors.New("unexpected EOF"))
	if got, want := err.Error(), "decode snapshot: unexpected EOF"; got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := map[Code]codes.Code{
		CodeUnknownTrait:       codes.InvalidArgument,
		CodeBelowFloor:         codes.FailedPrecondition,
		CodeInvalidTransition:  codes.FailedPrecondition,
		CodeCharacterNotFound:  codes.NotFound,
		CodeRulesetInvalid:     codes.Internal,
		Code("SOMETHING_ELSE"): codes.Unknown,
	}
	for code, want := range tests {
		if got := code.GRPCCode(); got != want {
			t.Fatalf("%s.GRPCCode() = %v, want %v", code, got, want)
		}
	}
}

func TestToGRPCStatusCarriesDetails(t *testing.T) {
	err := WithMetadata(CodeInsufficientPoints, "not enough freebies", map[string]string{"cost": "7"})
	st, ok := status.FromError(err.ToGRPCStatus("en-US", "Raising Forces costs 7 points"))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(CodeInsufficientPoints) || info.Metadata["cost"] != "7" {
		t.Fatalf("unexpected error info: %+v", info)
	}
	if localized == nil || localized.Message != "Raising Forces costs 7 points" {
		t.Fatalf("unexpected localized message: %+v", localized)
	}
}
