package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is the persisted aggregate. Supplier and client details are
// denormalized snapshots taken at submit time; ClientID additionally
// links the client registry record for listing by client.
type Invoice struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"not null;index"`
	InvoiceType   string `gorm:"not null;default:'invoice'"`
	InvoiceNumber string `gorm:"not null;index"`
	IssuedBy      string `gorm:"not null"`

	SupplierName    string
	SupplierICO     string
	SupplierDIC     string
	SupplierAddress string
	SupplierCity    string
	SupplierZip     string

	ClientID      string  `gorm:"not null;index"`
	Client        Company `gorm:"foreignKey:ClientID"`
	ClientName    string  `gorm:"not null"`
	ClientICO     string
	ClientDIC     string
	ClientAddress string
	ClientCity    string
	ClientZip     string

	IssueDate   time.Time       `gorm:"not null"`
	DueDate     time.Time       `gorm:"not null"`
	Currency    string          `gorm:"not null;default:'CZK'"`
	Status      string          `gorm:"not null;default:'pending';index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0"`
	Notes       string          `gorm:"type:text"`

	Items    []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Settings InvoiceSettings `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type InvoiceItem struct {
	ID          string          `gorm:"primaryKey;size:36"`
	InvoiceID   string          `gorm:"not null;index"`
	Description string          `gorm:"not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *InvoiceItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// InvoiceSettings is the 1:1 presentation/payment block.
type InvoiceSettings struct {
	ID                string `gorm:"primaryKey;size:36"`
	InvoiceID         string `gorm:"uniqueIndex;not null"`
	PaymentMethod     string `gorm:"not null;default:'bank'"`
	BankAccount       string
	RoutingNumber     string
	ConstantSymbol    string
	SpecificSymbol    string
	ShowIBAN          bool   `gorm:"not null;default:false"`
	Language          string `gorm:"not null;default:'en'"`
	Color             string `gorm:"not null;default:'#4f46e5'"`
	Style             string `gorm:"not null;default:'modern'"`
	Rounding          string `gorm:"not null;default:'none'"`
	Reference         string
	TradeRegisterInfo string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s *InvoiceSettings) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// InvoiceSummary is the flattened read model for listing and filtering.
// DisplayStatus carries the derived overdue state; Status stays the
// stored three-state enum.
type InvoiceSummary struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	DisplayStatus string          `json:"display_status"`
}
