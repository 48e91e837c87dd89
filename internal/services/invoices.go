// Package services holds the persistence-facing business operations.
// Handlers stay thin; tenant scoping and transactional rules live here.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/currency"
	"gorm.io/gorm"

	"github.com/fakturio/fakturio/internal/apperr"
	"github.com/fakturio/fakturio/internal/draft"
	"github.com/fakturio/fakturio/internal/filter"
	"github.com/fakturio/fakturio/internal/lifecycle"
	"github.com/fakturio/fakturio/internal/models"
	"github.com/fakturio/fakturio/internal/money"
)

type InvoiceService struct {
	DB  *gorm.DB
	Bus *lifecycle.Bus
	Log zerolog.Logger
}

func NewInvoiceService(db *gorm.DB, bus *lifecycle.Bus, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{DB: db, Bus: bus, Log: log}
}

// CreateInvoice persists a submitted draft snapshot. The client party is
// linked to the registry (matched by company id, then by exact name) and
// the invoice, its items and its settings are written in one transaction.
func (s *InvoiceService) CreateInvoice(ctx context.Context, snap draft.Snapshot) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(snap.Settings.Currency))
	if _, err := currency.ParseISO(code); err != nil {
		return "", apperr.New(apperr.UnsupportedCurrency, "unsupported_currency").
			WithFields(map[string]string{"currency": "unsupported_currency"})
	}

	lines := make([]money.Line, len(snap.Items))
	for i, it := range snap.Items {
		lines[i] = money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate}
	}
	totals, err := money.InvoiceTotals(lines)
	if err != nil {
		return "", err
	}

	inv := models.Invoice{
		UserID:        snap.OwnerID,
		InvoiceType:   snap.InvoiceType,
		InvoiceNumber: snap.InvoiceNumber,
		IssuedBy:      snap.IssuedBy,
		IssueDate:     snap.IssueDate,
		DueDate:       snap.DueDate,
		Currency:      code,
		Status:        string(lifecycle.StatusPending),
		TotalAmount:   money.Round2(totals.GrandTotal),
		Notes:         snap.Notes,

		SupplierName:    snap.Supplier.Name,
		SupplierICO:     snap.Supplier.ICO,
		SupplierDIC:     snap.Supplier.DIC,
		SupplierAddress: snap.Supplier.Address,
		SupplierCity:    snap.Supplier.City,
		SupplierZip:     snap.Supplier.Zip,

		ClientName:    snap.Client.Name,
		ClientICO:     snap.Client.ICO,
		ClientDIC:     snap.Client.DIC,
		ClientAddress: snap.Client.Address,
		ClientCity:    snap.Client.City,
		ClientZip:     snap.Client.Zip,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := findOrCreateClient(tx, snap.OwnerID, snap.Client)
		if err != nil {
			return err
		}
		inv.ClientID = client.ID

		if err := tx.Create(&inv).Error; err != nil {
			return err
		}

		for _, it := range snap.Items {
			amounts := money.Compute(money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, TaxRate: it.TaxRate})
			item := models.InvoiceItem{
				InvoiceID:   inv.ID,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				TaxRate:     it.TaxRate,
				Total:       money.Round2(amounts.Total),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		settings := models.InvoiceSettings{
			InvoiceID:         inv.ID,
			PaymentMethod:     snap.Settings.PaymentMethod,
			BankAccount:       snap.Settings.BankAccount,
			RoutingNumber:     snap.Settings.RoutingNumber,
			ConstantSymbol:    snap.Settings.ConstantSymbol,
			SpecificSymbol:    snap.Settings.SpecificSymbol,
			ShowIBAN:          snap.Settings.ShowIBAN,
			Language:          snap.Settings.Language,
			Color:             snap.Settings.Color,
			Style:             snap.Settings.Style,
			Rounding:          snap.Settings.Rounding,
			Reference:         snap.Reference,
			TradeRegisterInfo: snap.Settings.TradeRegisterInfo,
		}
		return tx.Create(&settings).Error
	})
	if err != nil {
		if _, ok := apperr.KindOf(err); ok {
			return "", err
		}
		return "", apperr.Wrap(apperr.Internal, "invoice_create_failed", err)
	}

	s.Log.Info().Str("invoice_id", inv.ID).Str("number", inv.InvoiceNumber).Msg("invoice created")
	return inv.ID, nil
}

func findOrCreateClient(tx *gorm.DB, userID string, p draft.Party) (*models.Company, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperr.New(apperr.Validation, "validation_failed").
			WithFields(map[string]string{"client.name": "required"})
	}
	// match by company id when known, otherwise by exact name
	var existing models.Company
	q := tx.Where("user_id = ?", userID)
	if p.ICO != "" {
		q = q.Where("ico = ?", p.ICO)
	} else {
		q = q.Where("name = ?", p.Name)
	}
	err := q.First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	client := models.Company{
		UserID:  userID,
		Name:    p.Name,
		ICO:     p.ICO,
		VatID:   p.DIC,
		Address: p.Address,
		City:    p.City,
		Zip:     p.Zip,
	}
	if err := tx.Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ListSummaries returns the user's invoices filtered by c, newest issue
// date first. Overdue is derived per row and never stored.
func (s *InvoiceService) ListSummaries(ctx context.Context, userID string, c filter.Criteria) ([]models.InvoiceSummary, filter.EmptyState, error) {
	var invoices []models.Invoice
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issue_date DESC, created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, filter.EmptyNone, apperr.Wrap(apperr.Internal, "invoice_list_failed", err)
	}

	now := time.Now()
	all := make([]models.InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		all = append(all, models.InvoiceSummary{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    inv.ClientName,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
			Currency:      inv.Currency,
			TotalAmount:   inv.TotalAmount,
			Status:        inv.Status,
			DisplayStatus: string(lifecycle.DisplayStatus(lifecycle.Status(inv.Status), inv.DueDate, now)),
		})
	}

	filtered := filter.Apply(all, c)
	return filtered, filter.Empty(all, filtered), nil
}

// Get loads one invoice with items and settings, scoped to the owner.
// A foreign id reads as not found so ids cannot be probed.
func (s *InvoiceService) Get(ctx context.Context, userID, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Preload("Settings").
		Where("id = ? AND user_id = ?", id, userID).
		First(&inv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.New(apperr.NotFound, "invoice_not_found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "invoice_get_failed", err)
	}
	return &inv, nil
}

// UpdateStatus applies a lifecycle transition. Setting the current status
// again is a no-op and publishes nothing.
func (s *InvoiceService) UpdateStatus(ctx context.Context, userID, id, status string) (*models.Invoice, error) {
	if !lifecycle.ValidStatus(status) {
		return nil, apperr.New(apperr.Validation, "invalid_status").
			WithFields(map[string]string{"status": "invalid_status"})
	}
	inv, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == status {
		return inv, nil
	}
	if err := lifecycle.Transition(lifecycle.Status(inv.Status), lifecycle.Status(status)); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(inv).Update("status", status).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "invoice_update_failed", err)
	}
	inv.Status = status
	s.Bus.Publish(lifecycle.Event{Type: lifecycle.EventStatusChanged, InvoiceID: inv.ID, Status: lifecycle.Status(status), OwnerID: inv.UserID})
	s.Log.Info().Str("invoice_id", inv.ID).Str("status", status).Msg("invoice status changed")
	return inv, nil
}

// Delete removes an owned invoice with its items and settings.
func (s *InvoiceService) Delete(ctx context.Context, userID, id string) error {
	inv, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceSettings{}).Error; err != nil {
			return err
		}
		return tx.Delete(inv).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "invoice_delete_failed", err)
	}
	s.Bus.Publish(lifecycle.Event{Type: lifecycle.EventDeleted, InvoiceID: inv.ID, Status: lifecycle.Status(inv.Status), OwnerID: inv.UserID})
	return nil
}

var _ draft.Persister = (*InvoiceService)(nil)
