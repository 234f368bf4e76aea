package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fidcar/user-service/internal/core/domain"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrForbidden, "forbidden"},
		{domain.ErrUnauthenticated, "unauthenticated"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidCredentials), "invalid_credentials"},
		{domain.NewValidationError("email", "is required"), "invalid"},
		{domain.ErrUserNotFound, "not_found"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Result(tt.err); got != tt.want {
			t.Fatalf("Result(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(OperationsTotal.WithLabelValues("delete", "not_found"))
	ObserveOperation("delete", domain.ErrUserNotFound)
	after := testutil.ToFloat64(OperationsTotal.WithLabelValues("delete", "not_found"))

	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}
