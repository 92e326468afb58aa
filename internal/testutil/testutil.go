// Package testutil provides shared test doubles.
package testutil

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"github.com/stretchr/testify/mock"
)

// MockServiceProvider is a mock implementation of service.Provider for testing.
type MockServiceProvider struct {
	mock.Mock
}

// Definition mocks the Definition method.
func (m *MockServiceProvider) Definition() types.Service {
	args := m.Called()
	return args.Get(0).(types.Service)
}

// Execute mocks the Execute method.
func (m *MockServiceProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	args := m.Called(ctx, toolID, params, appCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Result), args.Error(1)
}

// NewMockServiceProvider creates a mock provider whose Definition describes
// one tool named "<serviceID>.run".
func NewMockServiceProvider(t *testing.T, serviceID string) *MockServiceProvider {
	t.Helper()
	m := new(MockServiceProvider)

	m.On("Definition").Return(types.Service{
		ID:           serviceID,
		Name:         serviceID + " service",
		Description:  "Mock service for testing",
		Category:     types.CategoryConsole,
		Capabilities: []string{"run"},
		Tools: []types.Tool{{
			ID:          serviceID + ".run",
			Name:        "Run",
			Description: "Run something",
			Returns:     "object",
		}},
	}).Maybe()

	return m
}
