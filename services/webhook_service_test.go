package services_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"settlement-service/models"
	"settlement-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// mockOrderService records transitions so webhook and sweeper behavior can be
// asserted without the full order stack.
type mockOrderService struct {
	mu          sync.Mutex
	transitions []recordedTransition
	errByOrder  map[uuid.UUID]*services.ServiceError
}

type recordedTransition struct {
	orderID uuid.UUID
	to      models.OrderStatus
	actor   models.Actor
	note    string
}

func newMockOrderService() *mockOrderService {
	return &mockOrderService{errByOrder: make(map[uuid.UUID]*services.ServiceError)}
}

func (m *mockOrderService) GetUserOrders(_ context.Context, _ uuid.UUID, _, _ int) (*services.OrderListResponse, *services.ServiceError) {
	return &services.OrderListResponse{}, nil
}

func (m *mockOrderService) GetOrderByID(_ context.Context, _, _ uuid.UUID) (*models.Order, *services.ServiceError) {
	return nil, nil
}

func (m *mockOrderService) GetAllOrders(_ context.Context, _, _ int) (*services.OrderListResponse, *services.ServiceError) {
	return &services.OrderListResponse{}, nil
}

func (m *mockOrderService) Transition(_ context.Context, orderID uuid.UUID, to models.OrderStatus, actor models.Actor, _ *string, note string) (*models.Order, *services.ServiceError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if svcErr, ok := m.errByOrder[orderID]; ok {
		return nil, svcErr
	}
	m.transitions = append(m.transitions, recordedTransition{orderID: orderID, to: to, actor: actor, note: note})
	return &models.Order{ID: orderID, Status: to}, nil
}

// mockGatewayDeduper claims references in memory and records releases.
type mockGatewayDeduper struct {
	mu       sync.Mutex
	marked   map[string]bool
	releases []string
}

func newMockGatewayDeduper() *mockGatewayDeduper {
	return &mockGatewayDeduper{marked: make(map[string]bool)}
}

func (m *mockGatewayDeduper) Mark(_ context.Context, reference, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marked[reference] {
		return false, nil
	}
	m.marked[reference] = true
	return true, nil
}

func (m *mockGatewayDeduper) Release(_ context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.marked, reference)
	m.releases = append(m.releases, reference)
	return nil
}

func TestWebhook_SuccessSettlesOrder(t *testing.T) {
	orders := newMockOrderService()
	svc := services.NewWebhookService(orders, nil, testLogger())
	orderID := uuid.New()

	svcErr := svc.HandleGatewayEvent(context.Background(), &models.GatewayWebhookEvent{
		OrderID:   orderID.String(),
		Status:    "success",
		Reference: "ref-001",
	})

	assert.Nil(t, svcErr)
	assert.Len(t, orders.transitions, 1)
	assert.Equal(t, models.OrderStatusPaid, orders.transitions[0].to)
	assert.Equal(t, models.ActorSystem, orders.transitions[0].actor)
	assert.Contains(t, orders.transitions[0].note, "ref-001")
}

func TestWebhook_FailureCancelsOrder(t *testing.T) {
	orders := newMockOrderService()
	svc := services.NewWebhookService(orders, nil, testLogger())
	orderID := uuid.New()

	svcErr := svc.HandleGatewayEvent(context.Background(), &models.GatewayWebhookEvent{
		OrderID:   orderID.String(),
		Status:    "failure",
		Reference: "ref-002",
	})

	assert.Nil(t, svcErr)
	assert.Len(t, orders.transitions, 1)
	assert.Equal(t, models.OrderStatusCancelled, orders.transitions[0].to)
}

func TestWebhook_InvalidOrderID(t *testing.T) {
	svc := services.NewWebhookService(newMockOrderService(), nil, testLogger())

	svcErr := svc.HandleGatewayEvent(context.Background(), &models.GatewayWebhookEvent{
		OrderID:   "not-a-uuid",
		Status:    "success",
		Reference: "ref-003",
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}

func TestWebhook_ReplayHitsTransitionGuard(t *testing.T) {
	// Without a dedupe store, a replayed event is stopped by the state
	// machine itself: the second PAID transition is illegal.
	orders := newMockOrderService()
	svc := services.NewWebhookService(orders, nil, testLogger())
	orderID := uuid.New()

	evt := &models.GatewayWebhookEvent{OrderID: orderID.String(), Status: "success", Reference: "ref-004"}

	assert.Nil(t, svc.HandleGatewayEvent(context.Background(), evt))

	orders.mu.Lock()
	orders.errByOrder[orderID] = &services.ServiceError{
		StatusCode: http.StatusConflict,
		Code:       services.CodeInvalidTransition,
		Message:    "Cannot transition order from PAID to PAID",
	}
	orders.mu.Unlock()

	svcErr := svc.HandleGatewayEvent(context.Background(), evt)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
	assert.Len(t, orders.transitions, 1)
}

func TestWebhook_DuplicateReferenceSkipped(t *testing.T) {
	orders := newMockOrderService()
	deduper := newMockGatewayDeduper()
	svc := services.NewWebhookService(orders, deduper, testLogger())
	orderID := uuid.New()

	evt := &models.GatewayWebhookEvent{OrderID: orderID.String(), Status: "success", Reference: "ref-005"}

	assert.Nil(t, svc.HandleGatewayEvent(context.Background(), evt))
	assert.Nil(t, svc.HandleGatewayEvent(context.Background(), evt))

	assert.Len(t, orders.transitions, 1)
	assert.Empty(t, deduper.releases)
}

func TestWebhook_TransientFailureReleasesMarkForRetry(t *testing.T) {
	// A reference claimed for a settlement that never committed must be
	// released, otherwise the gateway's retry is swallowed as a duplicate
	// and the order is stranded in AWAITING_PAYMENT.
	orders := newMockOrderService()
	deduper := newMockGatewayDeduper()
	svc := services.NewWebhookService(orders, deduper, testLogger())
	orderID := uuid.New()

	orders.mu.Lock()
	orders.errByOrder[orderID] = &services.ServiceError{
		StatusCode: http.StatusInternalServerError,
		Code:       services.CodeInternal,
		Message:    "Failed to update order",
	}
	orders.mu.Unlock()

	evt := &models.GatewayWebhookEvent{OrderID: orderID.String(), Status: "success", Reference: "ref-006"}

	svcErr := svc.HandleGatewayEvent(context.Background(), evt)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInternal, svcErr.Code)
	assert.Equal(t, []string{"ref-006"}, deduper.releases)

	orders.mu.Lock()
	delete(orders.errByOrder, orderID)
	orders.mu.Unlock()

	assert.Nil(t, svc.HandleGatewayEvent(context.Background(), evt))
	assert.Len(t, orders.transitions, 1)
	assert.Equal(t, models.OrderStatusPaid, orders.transitions[0].to)
}

func TestWebhook_GuardConflictKeepsMark(t *testing.T) {
	// INVALID_TRANSITION means the order already settled; the reference
	// stays consumed so later replays short-circuit at the dedupe store.
	orders := newMockOrderService()
	deduper := newMockGatewayDeduper()
	svc := services.NewWebhookService(orders, deduper, testLogger())
	orderID := uuid.New()

	orders.mu.Lock()
	orders.errByOrder[orderID] = &services.ServiceError{
		StatusCode: http.StatusConflict,
		Code:       services.CodeInvalidTransition,
		Message:    "Cannot transition order from CANCELLED to PAID",
	}
	orders.mu.Unlock()

	evt := &models.GatewayWebhookEvent{OrderID: orderID.String(), Status: "success", Reference: "ref-007"}

	svcErr := svc.HandleGatewayEvent(context.Background(), evt)
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
	assert.Empty(t, deduper.releases)

	deduper.mu.Lock()
	stillMarked := deduper.marked["ref-007"]
	deduper.mu.Unlock()
	assert.True(t, stillMarked)
}
