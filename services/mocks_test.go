package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"settlement-service/models"
	"settlement-service/repository"
	"settlement-service/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Transactors ---

// passthroughTransactor runs the function directly. Mock repositories bound
// via WithTx(nil) return themselves, so writes land in the same mock state.
type passthroughTransactor struct{}

func (passthroughTransactor) InTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// rollbackTransactor mimics real transaction semantics against the mocks:
// it snapshots mock state before the function runs and restores it when the
// function returns an error.
type rollbackTransactor struct {
	snapshot func() func()
}

func (t *rollbackTransactor) InTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	restore := t.snapshot()
	if err := fn(nil); err != nil {
		restore()
		return err
	}
	return nil
}

// --- Wallet repository mock ---

type mockWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*models.Wallet
	byUser  map[uuid.UUID]uuid.UUID
	entries []models.WalletTransaction
}

func newMockWalletRepo() *mockWalletRepo {
	return &mockWalletRepo{
		wallets: make(map[uuid.UUID]*models.Wallet),
		byUser:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockWalletRepo) addWallet(userID uuid.UUID, balance float64) *models.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &models.Wallet{ID: uuid.New(), UserID: userID, Balance: balance}
	m.wallets[w.ID] = w
	m.byUser[userID] = w.ID
	return w
}

func (m *mockWalletRepo) balance(walletID uuid.UUID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[walletID].Balance
}

func (m *mockWalletRepo) WithTx(_ *gorm.DB) repository.WalletRepository { return m }

func (m *mockWalletRepo) FindByID(_ context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *mockWalletRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	cp := *m.wallets[id]
	return &cp, nil
}

func (m *mockWalletRepo) Create(_ context.Context, wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	cp := *wallet
	m.wallets[wallet.ID] = &cp
	m.byUser[wallet.UserID] = wallet.ID
	return nil
}

func (m *mockWalletRepo) Credit(_ context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	return m.move(walletID, amount, models.TransactionTypeCredit, description, orderID)
}

func (m *mockWalletRepo) Debit(_ context.Context, walletID uuid.UUID, amount float64, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	return m.move(walletID, amount, models.TransactionTypeDebit, description, orderID)
}

func (m *mockWalletRepo) move(walletID uuid.UUID, amount float64, txType models.TransactionType, description string, orderID *uuid.UUID) (*models.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	switch txType {
	case models.TransactionTypeCredit:
		w.Balance += amount
	case models.TransactionTypeDebit:
		if amount > w.Balance {
			return nil, repository.ErrInsufficientFunds
		}
		w.Balance -= amount
	}
	entry := models.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     walletID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: w.Balance,
		OrderID:      orderID,
		Description:  description,
		CreatedAt:    time.Now(),
	}
	m.entries = append(m.entries, entry)
	return &entry, nil
}

func (m *mockWalletRepo) FindTransactionByOrder(_ context.Context, walletID, orderID uuid.UUID, txType models.TransactionType) (*models.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		e := &m.entries[i]
		if e.WalletID == walletID && e.Type == txType && e.OrderID != nil && *e.OrderID == orderID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWalletRepo) ListTransactions(_ context.Context, walletID uuid.UUID, _, _ int) ([]models.WalletTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WalletTransaction
	for _, e := range m.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// --- Product repository mock ---

type mockProductRepo struct {
	mu            sync.Mutex
	products      map[uuid.UUID]*models.Product
	variants      map[uuid.UUID]*models.ProductVariant
	failDecrement bool
	restores      int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products: make(map[uuid.UUID]*models.Product),
		variants: make(map[uuid.UUID]*models.ProductVariant),
	}
}

func (m *mockProductRepo) addProduct(name string, price float64, stock int) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Product{ID: uuid.New(), Name: name, Price: price, Stock: stock}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepo) stock(productID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].Stock
}

func (m *mockProductRepo) WithTx(_ *gorm.DB) repository.ProductRepository { return m }

func (m *mockProductRepo) FindByID(_ context.Context, productID uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) FindVariant(_ context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[variantID]
	if !ok {
		return nil, repository.ErrVariantNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockProductRepo) Upsert(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDecrement {
		return repository.ErrStockUnavailable
	}
	if variantID != nil {
		v, ok := m.variants[*variantID]
		if !ok || v.Stock < quantity {
			return repository.ErrStockUnavailable
		}
		v.Stock -= quantity
		return nil
	}
	p, ok := m.products[productID]
	if !ok || p.Stock < quantity {
		return repository.ErrStockUnavailable
	}
	p.Stock -= quantity
	return nil
}

func (m *mockProductRepo) RestoreStock(_ context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restores++
	if variantID != nil {
		if v, ok := m.variants[*variantID]; ok {
			v.Stock += quantity
		}
		return nil
	}
	if p, ok := m.products[productID]; ok {
		p.Stock += quantity
	}
	return nil
}

// --- Order repository mock ---

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	events []models.OrderStatusEvent
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *mockOrderRepo) addOrder(o *models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	m.orders[o.ID] = o
	return o
}

func (m *mockOrderRepo) WithTx(_ *gorm.DB) repository.OrderRepository { return m }

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) FindByIDForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return m.FindByID(ctx, orderID)
}

func (m *mockOrderRepo) FindByIDAndUserID(_ context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) FindAll(_ context.Context, _, _ int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, updates map[string]interface{}, event *models.OrderStatusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	for key, val := range updates {
		switch key {
		case "status":
			o.Status = val.(models.OrderStatus)
		case "payment_status":
			o.PaymentStatus = val.(models.PaymentStatus)
		case "tracking_number":
			tn := val.(string)
			o.TrackingNumber = &tn
		}
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *mockOrderRepo) RecordStatusEvent(_ context.Context, event *models.OrderStatusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *mockOrderRepo) FindStaleAwaitingPayment(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == models.OrderStatusAwaitingPayment && o.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

// --- Discount repository mock ---

type mockDiscountRepo struct {
	mu    sync.Mutex
	codes map[string]*models.DiscountCode
}

func newMockDiscountRepo() *mockDiscountRepo {
	return &mockDiscountRepo{codes: make(map[string]*models.DiscountCode)}
}

func (m *mockDiscountRepo) addCode(c *models.DiscountCode) *models.DiscountCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Code = strings.ToUpper(c.Code)
	m.codes[c.Code] = c
	return c
}

func (m *mockDiscountRepo) WithTx(_ *gorm.DB) repository.DiscountRepository { return m }

func (m *mockDiscountRepo) Create(_ context.Context, code *models.DiscountCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.codes[code.Code]; exists {
		return gorm.ErrDuplicatedKey
	}
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	cp := *code
	m.codes[code.Code] = &cp
	return nil
}

func (m *mockDiscountRepo) FindByCode(_ context.Context, code string) (*models.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[strings.ToUpper(code)]
	if !ok || !c.Active {
		return nil, repository.ErrDiscountNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockDiscountRepo) FindByID(_ context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrDiscountNotFound
}

func (m *mockDiscountRepo) ConsumeUsage(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[strings.ToUpper(code)]
	if !ok || !c.Active {
		return repository.ErrDiscountNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return repository.ErrDiscountLimitReached
	}
	c.UsedCount++
	return nil
}

func (m *mockDiscountRepo) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID != id {
			continue
		}
		for key, val := range updates {
			switch key {
			case "value":
				c.Value = val.(float64)
			case "min_purchase":
				c.MinPurchase = val.(float64)
			case "max_discount":
				md := val.(float64)
				c.MaxDiscount = &md
			case "usage_limit":
				c.UsageLimit = val.(int)
			case "starts_at":
				c.StartsAt = val.(time.Time)
			case "expires_at":
				c.ExpiresAt = val.(time.Time)
			case "active":
				c.Active = val.(bool)
			}
		}
		return nil
	}
	return repository.ErrDiscountNotFound
}

func (m *mockDiscountRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, c := range m.codes {
		if c.ID == id {
			delete(m.codes, code)
			return nil
		}
	}
	return repository.ErrDiscountNotFound
}

func (m *mockDiscountRepo) FindAll(_ context.Context, _, _ int) ([]models.DiscountCode, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DiscountCode
	for _, c := range m.codes {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

// --- Flash sale repository mock ---

type mockFlashSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*models.FlashSale
}

func newMockFlashSaleRepo() *mockFlashSaleRepo {
	return &mockFlashSaleRepo{sales: make(map[uuid.UUID]*models.FlashSale)}
}

func (m *mockFlashSaleRepo) addSale(s *models.FlashSale) *models.FlashSale {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.sales[s.ID] = s
	return s
}

func (m *mockFlashSaleRepo) Create(_ context.Context, sale *models.FlashSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	cp := *sale
	m.sales[sale.ID] = &cp
	return nil
}

func (m *mockFlashSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*models.FlashSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, repository.ErrFlashSaleNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockFlashSaleRepo) FindEffective(_ context.Context, now time.Time) ([]models.FlashSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FlashSale
	for _, s := range m.sales {
		if s.EffectiveAt(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockFlashSaleRepo) Update(_ context.Context, sale *models.FlashSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[sale.ID]; !ok {
		return repository.ErrFlashSaleNotFound
	}
	cp := *sale
	m.sales[sale.ID] = &cp
	return nil
}

func (m *mockFlashSaleRepo) ReplaceProducts(_ context.Context, saleID uuid.UUID, productIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[saleID]
	if !ok {
		return repository.ErrFlashSaleNotFound
	}
	s.Products = nil
	for _, pid := range productIDs {
		s.Products = append(s.Products, models.FlashSaleProduct{FlashSaleID: saleID, ProductID: pid})
	}
	return nil
}

func (m *mockFlashSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[id]; !ok {
		return repository.ErrFlashSaleNotFound
	}
	delete(m.sales, id)
	return nil
}

func (m *mockFlashSaleRepo) FindAll(_ context.Context, _, _ int) ([]models.FlashSale, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FlashSale
	for _, s := range m.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

// --- Helpers ---

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func noopEvents() *services.EventPublisher {
	return services.NewEventPublisher(nil, nil, "", testLogger())
}

func activeSale(percent float64, productIDs ...uuid.UUID) *models.FlashSale {
	sale := &models.FlashSale{
		ID:              uuid.New(),
		Title:           "Test Sale",
		DiscountPercent: percent,
		StartsAt:        time.Now().Add(-time.Hour),
		EndsAt:          time.Now().Add(time.Hour),
		Active:          true,
	}
	for _, pid := range productIDs {
		sale.Products = append(sale.Products, models.FlashSaleProduct{FlashSaleID: sale.ID, ProductID: pid})
	}
	return sale
}

func activeCode(code string, codeType models.DiscountType, value float64) *models.DiscountCode {
	return &models.DiscountCode{
		ID:        uuid.New(),
		Code:      strings.ToUpper(code),
		Type:      codeType,
		Value:     value,
		StartsAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Active:    true,
	}
}
