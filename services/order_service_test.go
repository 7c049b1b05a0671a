package services_test

import (
	"context"
	"testing"

	"settlement-service/models"
	"settlement-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type orderFixture struct {
	orders   *mockOrderRepo
	wallets  *mockWalletRepo
	products *mockProductRepo
	svc      services.OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:   newMockOrderRepo(),
		wallets:  newMockWalletRepo(),
		products: newMockProductRepo(),
	}
	f.svc = services.NewOrderService(passthroughTransactor{}, f.orders, f.wallets, f.products, noopEvents(), testLogger())
	return f
}

func TestCanTransition_Table(t *testing.T) {
	cases := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.OrderStatusAwaitingPayment, models.OrderStatusPaid, true},
		{models.OrderStatusAwaitingPayment, models.OrderStatusCancelled, true},
		{models.OrderStatusAwaitingPayment, models.OrderStatusShipped, false},
		{models.OrderStatusPaid, models.OrderStatusProcessing, true},
		{models.OrderStatusPaid, models.OrderStatusCancelled, true},
		{models.OrderStatusPaid, models.OrderStatusDelivered, false},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusProcessing, models.OrderStatusCancelled, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, true},
		{models.OrderStatusDelivered, models.OrderStatusProcessing, false},
		{models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusPaid, false},
		{models.OrderStatusPaid, models.OrderStatusPaid, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, services.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_InvalidStep(t *testing.T) {
	f := newOrderFixture()
	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000001",
		UserID:        uuid.New(),
		Status:        models.OrderStatusDelivered,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: models.PaymentMethodWallet,
	})

	_, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusProcessing, models.ActorAdmin, nil, "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, services.CodeInvalidTransition, svcErr.Code)
}

func TestTransition_OrderNotFound(t *testing.T) {
	f := newOrderFixture()

	_, svcErr := f.svc.Transition(context.Background(), uuid.New(), models.OrderStatusPaid, models.ActorSystem, nil, "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Equal(t, services.CodeOrderNotFound, svcErr.Code)
}

func TestTransition_PaidSetsPaymentStatus(t *testing.T) {
	f := newOrderFixture()
	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000002",
		UserID:        uuid.New(),
		Status:        models.OrderStatusAwaitingPayment,
		PaymentStatus: models.PaymentStatusAwaitingPayment,
		PaymentMethod: models.PaymentMethodGateway,
	})

	updated, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusPaid, models.ActorSystem, nil, "gateway settled")

	assert.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusPaid, updated.Status)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Len(t, f.orders.events, 1)
	assert.Equal(t, models.OrderStatusAwaitingPayment, f.orders.events[0].FromStatus)
	assert.Equal(t, models.OrderStatusPaid, f.orders.events[0].ToStatus)
}

func TestTransition_ShippedRequiresTrackingNumber(t *testing.T) {
	f := newOrderFixture()
	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000003",
		UserID:        uuid.New(),
		Status:        models.OrderStatusProcessing,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: models.PaymentMethodCashOnDelivery,
	})

	_, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusShipped, models.ActorAdmin, nil, "")
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)

	tracking := "GH-TRACK-001"
	updated, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusShipped, models.ActorAdmin, &tracking, "")
	assert.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Equal(t, "GH-TRACK-001", *updated.TrackingNumber)
}

func TestTransition_CancelPaidWalletOrderRefunds(t *testing.T) {
	f := newOrderFixture()
	userID := uuid.New()
	wallet := f.wallets.addWallet(userID, 10)
	product := f.products.addProduct("Argan Oil Shampoo", 72, 3)

	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000004",
		UserID:        userID,
		Subtotal:      80,
		Discount:      8,
		Total:         72,
		Status:        models.OrderStatusPaid,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: models.PaymentMethodWallet,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 2, UnitPrice: 36, OriginalPrice: 40},
		},
	})

	updated, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusCancelled, models.ActorAdmin, nil, "customer request")

	assert.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, models.PaymentStatusRefunded, updated.PaymentStatus)

	// exactly the order total came back
	assert.Equal(t, 82.0, f.wallets.balance(wallet.ID))
	entry, err := f.wallets.FindTransactionByOrder(context.Background(), wallet.ID, order.ID, models.TransactionTypeCredit)
	assert.NoError(t, err)
	assert.Equal(t, 72.0, entry.Amount)

	// held stock was released
	assert.Equal(t, 5, f.products.stock(product.ID))
}

func TestTransition_RefundIsIdempotent(t *testing.T) {
	f := newOrderFixture()
	userID := uuid.New()
	wallet := f.wallets.addWallet(userID, 0)

	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000005",
		UserID:        userID,
		Total:         50,
		Status:        models.OrderStatusPaid,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: models.PaymentMethodWallet,
	})

	// a refund for this order already exists
	_, err := f.wallets.Credit(context.Background(), wallet.ID, 50, "Refund for order ORD-TEST00000005", &order.ID)
	assert.NoError(t, err)

	_, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusCancelled, models.ActorAdmin, nil, "")

	assert.Nil(t, svcErr)
	assert.Equal(t, 50.0, f.wallets.balance(wallet.ID)) // not credited twice
	assert.Len(t, f.wallets.entries, 1)
}

func TestTransition_CancelUnpaidMarksFailed(t *testing.T) {
	f := newOrderFixture()
	product := f.products.addProduct("Curl Cream", 30, 0)

	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000006",
		UserID:        uuid.New(),
		Total:         30,
		Status:        models.OrderStatusAwaitingPayment,
		PaymentStatus: models.PaymentStatusAwaitingPayment,
		PaymentMethod: models.PaymentMethodGateway,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 30, OriginalPrice: 30},
		},
	})

	updated, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusCancelled, models.ActorSystem, nil, "payment window expired")

	assert.Nil(t, svcErr)
	assert.Equal(t, models.PaymentStatusFailed, updated.PaymentStatus)
	assert.Empty(t, f.wallets.entries)                // no refund for unpaid orders
	assert.Equal(t, 1, f.products.stock(product.ID)) // stock released
}

func TestTransition_CancelCodPaidOrderDoesNotTouchWallet(t *testing.T) {
	f := newOrderFixture()
	userID := uuid.New()
	wallet := f.wallets.addWallet(userID, 5)

	order := f.orders.addOrder(&models.Order{
		OrderNumber:   "ORD-TEST00000007",
		UserID:        userID,
		Total:         40,
		Status:        models.OrderStatusPaid,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentMethod: models.PaymentMethodCashOnDelivery,
	})

	updated, svcErr := f.svc.Transition(context.Background(), order.ID, models.OrderStatusCancelled, models.ActorAdmin, nil, "")

	assert.Nil(t, svcErr)
	assert.Equal(t, models.PaymentStatusRefunded, updated.PaymentStatus)
	assert.Equal(t, 5.0, f.wallets.balance(wallet.ID)) // refund handled off-ledger
}

func TestGetOrderByID_ScopedToOwner(t *testing.T) {
	f := newOrderFixture()
	owner := uuid.New()
	order := f.orders.addOrder(&models.Order{
		OrderNumber: "ORD-TEST00000008",
		UserID:      owner,
		Status:      models.OrderStatusPaid,
	})

	found, svcErr := f.svc.GetOrderByID(context.Background(), owner, order.ID)
	assert.Nil(t, svcErr)
	assert.Equal(t, order.ID, found.ID)

	_, svcErr = f.svc.GetOrderByID(context.Background(), uuid.New(), order.ID)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}
