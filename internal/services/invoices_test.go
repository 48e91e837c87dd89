package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fakturio/fakturio/internal/apperr"
	"github.com/fakturio/fakturio/internal/db"
	"github.com/fakturio/fakturio/internal/draft"
	"github.com/fakturio/fakturio/internal/filter"
	"github.com/fakturio/fakturio/internal/lifecycle"
	"github.com/fakturio/fakturio/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newInvoiceService(t *testing.T) (*InvoiceService, *lifecycle.Bus) {
	t.Helper()
	bus := lifecycle.NewBus()
	return NewInvoiceService(setupTestDB(t), bus, zerolog.Nop()), bus
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func validSnapshot(owner string) draft.Snapshot {
	now := time.Now()
	return draft.Snapshot{
		OwnerID:       owner,
		InvoiceType:   "invoice",
		InvoiceNumber: "2026-001",
		IssuedBy:      "Acme s.r.o.",
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, 14),
		Supplier:      draft.Party{Name: "Acme s.r.o.", ICO: "12345678"},
		Client:        draft.Party{Name: "Customer Ltd", ICO: "87654321", City: "Praha"},
		Items: []draft.Item{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: dec("21")},
		},
		Settings: draft.Settings{
			PaymentMethod: "bank", Currency: "CZK", Rounding: "none",
			Language: "cs", Color: "#4f46e5", Style: "modern",
			TradeRegisterInfo: "Zapsána u MS v Praze, oddíl C, vložka 1234",
		},
	}
}

func TestCreateInvoicePersistsAggregate(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	id, err := svc.CreateInvoice(ctx, validSnapshot("user-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inv, err := svc.Get(ctx, "user-1", id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := inv.TotalAmount.StringFixed(2); got != "242.00" {
		t.Fatalf("total = %s, want 242.00", got)
	}
	if len(inv.Items) != 1 || inv.Items[0].Description != "Consulting" {
		t.Fatalf("items = %+v", inv.Items)
	}
	if inv.Settings.Language != "cs" {
		t.Fatalf("settings = %+v", inv.Settings)
	}
	if !strings.Contains(inv.Settings.TradeRegisterInfo, "vložka 1234") {
		t.Fatalf("trade register info = %q", inv.Settings.TradeRegisterInfo)
	}
	if inv.Status != "pending" {
		t.Fatalf("status = %s, want pending", inv.Status)
	}

	// client party landed in the registry
	var client models.Company
	if err := svc.DB.Where("ico = ?", "87654321").First(&client).Error; err != nil {
		t.Fatalf("client company: %v", err)
	}
	if inv.ClientID != client.ID {
		t.Fatalf("client link mismatch: %s vs %s", inv.ClientID, client.ID)
	}
}

func TestCreateInvoiceReusesClient(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	if _, err := svc.CreateInvoice(ctx, validSnapshot("user-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	snap := validSnapshot("user-1")
	snap.InvoiceNumber = "2026-002"
	if _, err := svc.CreateInvoice(ctx, snap); err != nil {
		t.Fatalf("second create: %v", err)
	}
	var count int64
	if err := svc.DB.Model(&models.Company{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("companies = %d, want 1", count)
	}
}

func TestCreateInvoiceUnsupportedCurrency(t *testing.T) {
	svc, _ := newInvoiceService(t)
	snap := validSnapshot("user-1")
	snap.Settings.Currency = "ZZZ"
	_, err := svc.CreateInvoice(context.Background(), snap)
	if !apperr.IsKind(err, apperr.UnsupportedCurrency) {
		t.Fatalf("expected unsupported currency, got %v", err)
	}
	// nothing partial persisted
	var count int64
	svc.DB.Model(&models.Invoice{}).Count(&count)
	if count != 0 {
		t.Fatalf("invoices = %d, want 0", count)
	}
}

func TestCreateInvoiceInvalidItemsAtomic(t *testing.T) {
	svc, _ := newInvoiceService(t)
	snap := validSnapshot("user-1")
	snap.Items = append(snap.Items, draft.Item{Description: "Bad", Quantity: dec("0"), UnitPrice: dec("10")})
	_, err := svc.CreateInvoice(context.Background(), snap)
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("expected validation, got %v", err)
	}
	var invoices, items, companies int64
	svc.DB.Model(&models.Invoice{}).Count(&invoices)
	svc.DB.Model(&models.InvoiceItem{}).Count(&items)
	svc.DB.Model(&models.Company{}).Count(&companies)
	if invoices != 0 || items != 0 || companies != 0 {
		t.Fatalf("partial write: invoices=%d items=%d companies=%d", invoices, items, companies)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	id, err := svc.CreateInvoice(ctx, validSnapshot("user-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// a foreign id reads as not found, same as a missing one
	if _, err := svc.Get(ctx, "user-2", id); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("foreign get: %v", err)
	}
	if err := svc.Delete(ctx, "user-2", id); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "user-2", id, "paid"); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("foreign status: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", id); err != nil {
		t.Fatalf("owner get after foreign attempts: %v", err)
	}
}

func TestUpdateStatusPublishesOnce(t *testing.T) {
	svc, bus := newInvoiceService(t)
	ctx := context.Background()
	id, err := svc.CreateInvoice(ctx, validSnapshot("user-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ch, cancel := bus.Subscribe()
	defer cancel()

	if _, err := svc.UpdateStatus(ctx, "user-1", id, "paid"); err != nil {
		t.Fatalf("pending -> paid: %v", err)
	}
	select {
	case e := <-ch:
		if e.Type != lifecycle.EventStatusChanged || e.Status != lifecycle.StatusPaid {
			t.Fatalf("unexpected event %+v", e)
		}
		if e.OwnerID != "user-1" {
			t.Fatalf("event owner = %q, want user-1", e.OwnerID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	// same-state update is an idempotent no-op, no event
	if _, err := svc.UpdateStatus(ctx, "user-1", id, "paid"); err != nil {
		t.Fatalf("paid -> paid: %v", err)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected event on no-op: %+v", e)
	default:
	}

	// terminal state rejects further transitions
	if _, err := svc.UpdateStatus(ctx, "user-1", id, "canceled"); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("paid -> canceled: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "user-1", id, "bogus"); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("bogus status: %v", err)
	}
}

func TestDeleteRemovesChildrenAndPublishes(t *testing.T) {
	svc, bus := newInvoiceService(t)
	ctx := context.Background()
	id, err := svc.CreateInvoice(ctx, validSnapshot("user-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ch, cancel := bus.Subscribe()
	defer cancel()

	if err := svc.Delete(ctx, "user-1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	select {
	case e := <-ch:
		if e.Type != lifecycle.EventDeleted || e.InvoiceID != id {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no deleted event")
	}
	var items, settings int64
	svc.DB.Model(&models.InvoiceItem{}).Count(&items)
	svc.DB.Model(&models.InvoiceSettings{}).Count(&settings)
	if items != 0 || settings != 0 {
		t.Fatalf("orphans left: items=%d settings=%d", items, settings)
	}
}

func TestListSummariesDerivesOverdueAndFilters(t *testing.T) {
	svc, _ := newInvoiceService(t)
	ctx := context.Background()

	overdue := validSnapshot("user-1")
	overdue.IssueDate = time.Now().AddDate(0, 0, -30)
	overdue.DueDate = time.Now().AddDate(0, 0, -10)
	if _, err := svc.CreateInvoice(ctx, overdue); err != nil {
		t.Fatalf("create overdue: %v", err)
	}
	current := validSnapshot("user-1")
	current.InvoiceNumber = "2026-002"
	if _, err := svc.CreateInvoice(ctx, current); err != nil {
		t.Fatalf("create current: %v", err)
	}
	foreign := validSnapshot("user-2")
	if _, err := svc.CreateInvoice(ctx, foreign); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	all, empty, err := svc.ListSummaries(ctx, "user-1", filter.Criteria{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list leaked tenants: %d rows", len(all))
	}
	if empty != filter.EmptyNone {
		t.Fatalf("empty state = %s", empty)
	}
	// stored status stays pending, only the display derives overdue
	for _, s := range all {
		if s.Status != "pending" {
			t.Fatalf("stored status mutated: %+v", s)
		}
	}

	onlyOverdue, _, err := svc.ListSummaries(ctx, "user-1", filter.Criteria{Status: "overdue"})
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(onlyOverdue) != 1 || onlyOverdue[0].DisplayStatus != "overdue" {
		t.Fatalf("overdue filter = %+v", onlyOverdue)
	}

	none, empty, err := svc.ListSummaries(ctx, "user-1", filter.Criteria{Status: "paid"})
	if err != nil {
		t.Fatalf("list paid: %v", err)
	}
	if len(none) != 0 || empty != filter.EmptyNoMatches {
		t.Fatalf("paid filter = %v empty=%s", none, empty)
	}

	_, empty, err = svc.ListSummaries(ctx, "user-3", filter.Criteria{})
	if err != nil {
		t.Fatalf("list empty tenant: %v", err)
	}
	if empty != filter.EmptyNoInvoices {
		t.Fatalf("fresh tenant empty state = %s", empty)
	}
}
