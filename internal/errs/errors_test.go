package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", Invalid("items", "at least one item is required"), codes.InvalidArgument},
		{"not found", NotFound("customer", 7), codes.NotFound},
		{"stock", &InsufficientStockError{ProductName: "X", Available: 1, Required: 2}, codes.FailedPrecondition},
		{"conflict", Conflict("duplicate %s", "id"), codes.AlreadyExists},
		{"in use", InUse("customer has orders"), codes.FailedPrecondition},
		{"integrity", Integrity("product %d vanished", 3), codes.Internal},
		{"wrapped", fmt.Errorf("create order: %w", NotFound("product", 1, 2)), codes.NotFound},
		{"unauthenticated", Unauthenticated("invalid email or password"), codes.Unauthenticated},
		{"plain", fmt.Errorf("boom"), codes.Unknown},
		{"nil", nil, codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestStatusFromError(t *testing.T) {
	s, ok := status.FromError(NotFound("order", 12))
	assert.True(t, ok)
	assert.Equal(t, codes.NotFound, s.Code())
	assert.Equal(t, "order 12 not found", s.Message())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "products not found: 3, 9", NotFound("products", 3, 9).Error())

	v := &ValidationError{}
	assert.NoError(t, v.OrNil())
	v.Add("customer_id", "customer is required")
	v.Add("items", "at least one item is required")
	assert.EqualError(t, v.OrNil(), "validation failed: customer is required; at least one item is required")

	stock := &InsufficientStockError{ProductName: "Shampoo", Available: 2, Required: 5}
	assert.Equal(t, "insufficient stock for Shampoo. Available: 2, Requested: 5", stock.Error())
}
