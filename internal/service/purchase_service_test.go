package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/bitfantasy/compras/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- fakes ---

type fakePurchaseStore struct {
	purchases   map[uint]*entity.Purchase
	nextID      uint
	insertCalls int
	updateCalls int
	insertErr   error
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{purchases: map[uint]*entity.Purchase{}, nextID: 1}
}

func (f *fakePurchaseStore) Insert(p *entity.Purchase) error {
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	p.ID = f.nextID
	f.nextID++
	cp := *p
	f.purchases[p.ID] = &cp
	return nil
}

func (f *fakePurchaseStore) Update(p *entity.Purchase) error {
	f.updateCalls++
	if _, ok := f.purchases[p.ID]; !ok {
		return errors.New("not found")
	}
	cp := *p
	f.purchases[p.ID] = &cp
	return nil
}

func (f *fakePurchaseStore) GetByID(id uint) (*entity.Purchase, error) {
	p, ok := f.purchases[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakePurchaseStore) Delete(id uint) error {
	delete(f.purchases, id)
	return nil
}

func (f *fakePurchaseStore) List(repository.PurchaseFilter) ([]entity.Purchase, error) {
	return nil, nil
}
func (f *fakePurchaseStore) PendingCredits() ([]entity.Purchase, error) { return nil, nil }
func (f *fakePurchaseStore) PaidCredits() ([]entity.Purchase, error)   { return nil, nil }
func (f *fakePurchaseStore) TotalBySupplier(uint) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakePurchaseStore) TotalByCategory(string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakePurchaseStore) TotalByPeriod(time.Time, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakePurchaseStore) TotalPendingCredits() (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakePurchaseStore) PendingBySupplier(uint) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeItemStore struct {
	items       map[uint][]entity.PurchaseItem
	nextID      uint
	insertCalls int
	failAt      int // fail the Nth insert (1-based), 0 disables
	deleteCalls int
	sumCalls    int
	batchCalls  int
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: map[uint][]entity.PurchaseItem{}, nextID: 100}
}

func (f *fakeItemStore) Insert(item *entity.PurchaseItem) error {
	f.insertCalls++
	if f.failAt > 0 && f.insertCalls == f.failAt {
		return errors.New("disk full")
	}
	item.ID = f.nextID
	f.nextID++
	f.items[item.PurchaseID] = append(f.items[item.PurchaseID], *item)
	return nil
}

func (f *fakeItemStore) ListByPurchase(purchaseID uint) ([]entity.PurchaseItem, error) {
	return f.items[purchaseID], nil
}

func (f *fakeItemStore) DeleteByPurchase(purchaseID uint) (int64, error) {
	f.deleteCalls++
	n := int64(len(f.items[purchaseID]))
	delete(f.items, purchaseID)
	return n, nil
}

func (f *fakeItemStore) CountByPurchase(purchaseID uint) (int64, error) {
	return int64(len(f.items[purchaseID])), nil
}

func (f *fakeItemStore) SumQuantityByPurchase(purchaseID uint) (int, error) {
	f.sumCalls++
	sum := 0
	for _, it := range f.items[purchaseID] {
		sum += it.Quantity
	}
	return sum, nil
}

func (f *fakeItemStore) SumQuantityByPurchases(ids []uint) (map[uint]int, error) {
	f.batchCalls++
	out := map[uint]int{}
	for _, id := range ids {
		sum := 0
		for _, it := range f.items[id] {
			sum += it.Quantity
		}
		if sum > 0 {
			out[id] = sum
		}
	}
	return out, nil
}

// --- helpers ---

func newTestService(t *testing.T) (*PurchaseService, *fakePurchaseStore, *fakeItemStore) {
	t.Helper()
	ps := newFakePurchaseStore()
	is := newFakeItemStore()
	return NewPurchaseService(ps, is, zap.NewNop()), ps, is
}

func creditState(s entity.CreditState) *entity.CreditState { return &s }

func validDraft() *entity.Purchase {
	return &entity.Purchase{
		SupplierID:    1,
		InvoiceNumber: "F-001",
		Category:      "ferreteria",
		Description:   "compra de materiales",
		Total:         decimal.NewFromInt(100),
		PurchaseDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: entity.PaymentCash,
	}
}

func item(qty int, price string) entity.PurchaseItem {
	return entity.PurchaseItem{
		Quantity:    qty,
		Description: "tornillos",
		UnitPrice:   decimal.RequireFromString(price),
	}
}

// --- draft validation ---

func TestValidateDraftRuleOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*entity.Purchase)
		field  string
	}{
		{"missing supplier", func(p *entity.Purchase) { p.SupplierID = 0 }, "supplier_id"},
		{"missing invoice", func(p *entity.Purchase) { p.InvoiceNumber = "" }, "invoice_number"},
		{"missing category", func(p *entity.Purchase) { p.Category = "" }, "category"},
		{"missing description", func(p *entity.Purchase) { p.Description = "" }, "description"},
		{"zero total", func(p *entity.Purchase) { p.Total = decimal.Zero }, "total"},
		{"negative total", func(p *entity.Purchase) { p.Total = decimal.NewFromInt(-5) }, "total"},
		{"missing date", func(p *entity.Purchase) { p.PurchaseDate = time.Time{} }, "purchase_date"},
		{"unknown method", func(p *entity.Purchase) { p.PaymentMethod = "check" }, "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validDraft()
			tt.mutate(p)
			err := svc.ValidateDraft(p)
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}

	if err := svc.ValidateDraft(validDraft()); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
}

func TestValidateDraftCreditRules(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Now()

	// credit without a state
	p := validDraft()
	p.PaymentMethod = entity.PaymentCredit
	if err := svc.ValidateDraft(p); err == nil {
		t.Fatal("credit purchase without credit state must be rejected")
	}

	// credit marked paid needs a payment date
	p = validDraft()
	p.PaymentMethod = entity.PaymentCredit
	p.CreditState = creditState(entity.CreditPaid)
	if err := svc.ValidateDraft(p); err == nil {
		t.Fatal("paid credit without payment date must be rejected")
	}
	p.PaymentDate = &now
	if err := svc.ValidateDraft(p); err != nil {
		t.Fatalf("paid credit with payment date rejected: %v", err)
	}

	// pending credit must not carry a payment date
	p = validDraft()
	p.PaymentMethod = entity.PaymentCredit
	p.CreditState = creditState(entity.CreditPending)
	p.PaymentDate = &now
	if err := svc.ValidateDraft(p); err == nil {
		t.Fatal("pending credit with payment date must be rejected")
	}

	// cash purchase must not carry a credit state
	p = validDraft()
	p.CreditState = creditState(entity.CreditPending)
	if err := svc.ValidateDraft(p); err == nil {
		t.Fatal("cash purchase with credit state must be rejected")
	}

	// only pending/paid are known credit states; arbitrary JSON input
	// must not slip through and be read back as pending
	p = validDraft()
	p.PaymentMethod = entity.PaymentCredit
	p.CreditState = creditState("bogus")
	err := svc.ValidateDraft(p)
	if !IsValidation(err) {
		t.Fatalf("unknown credit state must be rejected, got %v", err)
	}
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Field != "credit_state" {
		t.Fatalf("expected credit_state field, got %q", verr.Field)
	}
}

// --- totals reconciliation ---

func TestReconcileTotals(t *testing.T) {
	svc, _, _ := newTestService(t)

	items, total, err := svc.ReconcileTotals([]entity.PurchaseItem{
		item(2, "1000"), item(1, "500"),
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected total 2500, got %s", total)
	}
	if !items[0].Subtotal.Equal(decimal.NewFromInt(2000)) || !items[1].Subtotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected subtotals: %s, %s", items[0].Subtotal, items[1].Subtotal)
	}
}

func TestReconcileTotalsRejectsBadItems(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, _, err := svc.ReconcileTotals(nil); err == nil {
		t.Fatal("empty item list must be rejected")
	}

	_, _, err := svc.ReconcileTotals([]entity.PurchaseItem{
		item(2, "1000"), item(0, "500"),
	})
	if err == nil {
		t.Fatal("zero quantity must be rejected")
	}
	if !strings.Contains(err.Error(), "条目 2") {
		t.Fatalf("error must name the offending position, got: %v", err)
	}

	_, _, err = svc.ReconcileTotals([]entity.PurchaseItem{
		{Quantity: 1, Description: "   ", UnitPrice: decimal.NewFromInt(10)},
	})
	if err == nil {
		t.Fatal("blank description must be rejected")
	}

	_, _, err = svc.ReconcileTotals([]entity.PurchaseItem{
		{Quantity: 1, Description: "x", UnitPrice: decimal.Zero},
	})
	if err == nil {
		t.Fatal("non-positive unit price must be rejected")
	}
}

// --- register with items ---

func TestRegisterWithItems(t *testing.T) {
	svc, ps, is := newTestService(t)

	p := validDraft()
	p.Total = decimal.Zero // derived, caller value ignored
	created, err := svc.RegisterWithItems(p, []entity.PurchaseItem{
		item(2, "1000"), item(1, "500"),
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !created.Total.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected derived total 2500, got %s", created.Total)
	}

	stored := is.items[created.ID]
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored items, got %d", len(stored))
	}
	for i, it := range stored {
		if it.SortOrder != i {
			t.Fatalf("expected sort order %d, got %d", i, it.SortOrder)
		}
		if it.PurchaseID != created.ID {
			t.Fatalf("item not linked to purchase")
		}
	}
	if ps.insertCalls != 1 {
		t.Fatalf("expected single purchase insert, got %d", ps.insertCalls)
	}
}

func TestRegisterWithItemsValidatesBeforeStorage(t *testing.T) {
	svc, ps, is := newTestService(t)

	p := validDraft()
	p.SupplierID = 0
	_, err := svc.RegisterWithItems(p, []entity.PurchaseItem{item(1, "10")})
	if err == nil {
		t.Fatal("invalid draft must be rejected")
	}
	if ps.insertCalls != 0 || is.insertCalls != 0 {
		t.Fatal("storage must not be touched when validation fails")
	}
}

func TestRegisterWithItemsPartialFailure(t *testing.T) {
	svc, ps, is := newTestService(t)
	is.failAt = 2

	p := validDraft()
	_, err := svc.RegisterWithItems(p, []entity.PurchaseItem{
		item(1, "10"), item(2, "20"), item(3, "30"),
	})
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if !strings.Contains(err.Error(), "item 2 of 3") {
		t.Fatalf("error must report the failing ordinal, got: %v", err)
	}
	// the purchase row and the first item stay written
	if len(ps.purchases) != 1 {
		t.Fatalf("expected purchase row to remain, got %d", len(ps.purchases))
	}
	if len(is.items[1]) != 1 {
		t.Fatalf("expected 1 item written before the failure, got %d", len(is.items[1]))
	}
}

// --- replace items ---

func TestReplaceItems(t *testing.T) {
	svc, _, is := newTestService(t)

	p := validDraft()
	created, err := svc.RegisterWithItems(p, []entity.PurchaseItem{item(2, "1000")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	oldID := is.items[created.ID][0].ID

	updated, err := svc.ReplaceItems(created, []entity.PurchaseItem{
		item(3, "200"), item(1, "400"),
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if !updated.Total.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected recomputed total 1000, got %s", updated.Total)
	}
	if is.deleteCalls != 1 {
		t.Fatalf("expected one delete-all call, got %d", is.deleteCalls)
	}
	stored := is.items[created.ID]
	if len(stored) != 2 {
		t.Fatalf("expected 2 fresh items, got %d", len(stored))
	}
	for i, it := range stored {
		if it.ID == oldID {
			t.Fatal("replaced items must get fresh IDs")
		}
		if it.SortOrder != i {
			t.Fatalf("expected sort order %d, got %d", i, it.SortOrder)
		}
	}
}

func TestReplaceItemsEmptyListRejectedBeforeStorage(t *testing.T) {
	svc, ps, is := newTestService(t)

	p := validDraft()
	created, err := svc.RegisterWithItems(p, []entity.PurchaseItem{item(2, "1000")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	updatesBefore := ps.updateCalls

	_, err = svc.ReplaceItems(created, nil)
	if err == nil {
		t.Fatal("empty replacement list must be rejected")
	}
	if ps.updateCalls != updatesBefore || is.deleteCalls != 0 {
		t.Fatal("storage must not be touched when the replacement list is empty")
	}
	if len(is.items[created.ID]) != 1 {
		t.Fatal("existing items must survive a rejected replacement")
	}
}

// --- payment ---

func TestMarkPaidCredit(t *testing.T) {
	svc, ps, _ := newTestService(t)

	p := validDraft()
	p.PaymentMethod = entity.PaymentCredit
	p.CreditState = creditState(entity.CreditPending)
	created, err := svc.Register(p)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.MarkPaid(created.ID, date); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	stored := ps.purchases[created.ID]
	if stored.PaymentState() != entity.StateCreditPaid {
		t.Fatalf("expected CREDIT_PAID, got %s", stored.PaymentState())
	}
	if stored.PaymentDate == nil || !stored.PaymentDate.Equal(date) {
		t.Fatal("payment date must be recorded")
	}

	// paying twice is a one-way transition
	if err := svc.MarkPaid(created.ID, date); err == nil {
		t.Fatal("already-paid purchase must be rejected")
	}
}

func TestMarkPaidDirect(t *testing.T) {
	svc, ps, _ := newTestService(t)

	created, err := svc.Register(validDraft())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if ps.purchases[created.ID].PaymentState() != entity.StateDirectUnpaid {
		t.Fatal("cash purchase must start DIRECT_UNPAID")
	}

	if err := svc.MarkPaid(created.ID, time.Time{}); err == nil {
		t.Fatal("zero payment date must be rejected")
	}

	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	if err := svc.MarkPaid(created.ID, date); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if ps.purchases[created.ID].PaymentState() != entity.StateDirectPaid {
		t.Fatal("cash purchase must transition to DIRECT_PAID")
	}
}

// --- quantity aggregation ---

func TestQuantityOfUsesCache(t *testing.T) {
	svc, _, is := newTestService(t)

	created, err := svc.RegisterWithItems(validDraft(), []entity.PurchaseItem{
		item(2, "10"), item(3, "20"),
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	qty, err := svc.QuantityOf(created.ID)
	if err != nil {
		t.Fatalf("quantity failed: %v", err)
	}
	if qty != 5 {
		t.Fatalf("expected quantity 5, got %d", qty)
	}
	calls := is.sumCalls

	// repeated reads are served from the cache
	for i := 0; i < 10; i++ {
		if _, err := svc.QuantityOf(created.ID); err != nil {
			t.Fatalf("cached read failed: %v", err)
		}
	}
	if is.sumCalls != calls {
		t.Fatalf("expected no further store reads, got %d extra", is.sumCalls-calls)
	}
}

func TestReplaceItemsFailureStillInvalidatesQuantityCache(t *testing.T) {
	svc, _, is := newTestService(t)

	created, err := svc.RegisterWithItems(validDraft(), []entity.PurchaseItem{item(2, "10")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if qty, _ := svc.QuantityOf(created.ID); qty != 2 {
		t.Fatalf("expected cached quantity 2, got %d", qty)
	}

	// the second insert of the replacement fails: old items are gone,
	// one new item landed, and the pre-mutation quantity must not survive
	is.failAt = is.insertCalls + 2
	_, err = svc.ReplaceItems(created, []entity.PurchaseItem{item(3, "10"), item(5, "10")})
	if err == nil {
		t.Fatal("expected mid-sequence insert failure")
	}

	qty, err := svc.QuantityOf(created.ID)
	if err != nil {
		t.Fatalf("quantity failed: %v", err)
	}
	if qty != 3 {
		t.Fatalf("expected fresh quantity 3 from store, got stale %d", qty)
	}
}

func TestReplaceItemsInvalidatesQuantityCache(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.RegisterWithItems(validDraft(), []entity.PurchaseItem{item(2, "10")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if qty, _ := svc.QuantityOf(created.ID); qty != 2 {
		t.Fatalf("expected quantity 2, got %d", qty)
	}

	if _, err := svc.ReplaceItems(created, []entity.PurchaseItem{item(7, "10")}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	// stale quantity would be the bug here
	if qty, _ := svc.QuantityOf(created.ID); qty != 7 {
		t.Fatalf("expected fresh quantity 7 after replacement, got %d", qty)
	}
}

func TestBatchQuantities(t *testing.T) {
	svc, _, _ := newTestService(t)

	p1, err := svc.RegisterWithItems(validDraft(), []entity.PurchaseItem{item(2, "10"), item(1, "5")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	d2 := validDraft()
	d2.InvoiceNumber = "F-002"
	p2, err := svc.RegisterWithItems(d2, []entity.PurchaseItem{item(4, "8")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, err := svc.BatchQuantities([]uint{p1.ID, p2.ID, 999})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if got[p1.ID] != 3 || got[p2.ID] != 4 {
		t.Fatalf("unexpected quantities: %v", got)
	}
	if _, ok := got[999]; ok {
		t.Fatal("purchases without items must not appear in the result")
	}
}

func TestBatchQuantitiesEmptyInput(t *testing.T) {
	svc, _, is := newTestService(t)

	got, err := svc.BatchQuantities(nil)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	if is.batchCalls != 0 {
		t.Fatal("empty input must not reach the store")
	}
}

// --- misc ---

func TestRegisterNormalizesCategory(t *testing.T) {
	svc, ps, _ := newTestService(t)

	p := validDraft()
	p.Category = "  Ferretería  "
	created, err := svc.Register(p)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if ps.purchases[created.ID].Category != "ferretería" {
		t.Fatalf("category not normalized: %q", ps.purchases[created.ID].Category)
	}
}

func TestDeleteInvalidatesQuantityCache(t *testing.T) {
	svc, _, is := newTestService(t)

	created, err := svc.RegisterWithItems(validDraft(), []entity.PurchaseItem{item(2, "10")})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.QuantityOf(created.ID); err != nil {
		t.Fatalf("quantity failed: %v", err)
	}
	calls := is.sumCalls

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// a fresh read must go back to the store
	if _, err := svc.QuantityOf(created.ID); err != nil {
		t.Fatalf("quantity failed: %v", err)
	}
	if is.sumCalls != calls+1 {
		t.Fatal("delete must invalidate the cached quantity")
	}
}

func TestStorageErrorMessage(t *testing.T) {
	err := storageStepErr("insert item", fmt.Sprintf("item %d of %d", 2, 3), errors.New("disk full"))
	want := "insert item (item 2 of 3): disk full"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
