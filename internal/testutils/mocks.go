package testutils

import (
	"context"
	"time"

	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/shared"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockSuggestionProvider is a mock implementation of outbound.SuggestionProvider
type MockSuggestionProvider struct {
	mock.Mock
}

// Suggest mocks the provider call
func (m *MockSuggestionProvider) Suggest(ctx context.Context, req outbound.SuggestionRequest) ([]rotation.SuggestedSwap, error) {
	args := m.Called(ctx, req)
	swaps, _ := args.Get(0).([]rotation.SuggestedSwap)
	return swaps, args.Error(1)
}

// MockEventPublisher is a mock implementation of outbound.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// Publish mocks event publication
func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// SetupStandardMockBehavior accepts every publication
func (m *MockEventPublisher) SetupStandardMockBehavior() {
	m.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// MockRecorder is a mock of the business metrics recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSwapApplied()   { m.Called() }
func (m *MockRecorder) RecordStaleProposal() { m.Called() }
func (m *MockRecorder) RecordCycleRejected() { m.Called() }

func (m *MockRecorder) RecordProposal(source string) { m.Called(source) }

func (m *MockRecorder) RecordAnalysis(templateID string, fill int, duration time.Duration) {
	m.Called(templateID, fill, duration)
}

func (m *MockRecorder) RecordCache(result string) { m.Called(result) }

// SetupStandardMockBehavior accepts every recording
func (m *MockRecorder) SetupStandardMockBehavior() {
	m.On("RecordSwapApplied").Maybe()
	m.On("RecordStaleProposal").Maybe()
	m.On("RecordCycleRejected").Maybe()
	m.On("RecordProposal", mock.Anything).Maybe()
	m.On("RecordAnalysis", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordCache", mock.Anything).Maybe()
}
