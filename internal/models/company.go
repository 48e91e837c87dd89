package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is one of the user's own billing identities. At most one per
// user carries IsDefault; SetDefault flips the flag atomically.
type Supplier struct {
	ID                string `gorm:"primaryKey;size:36"`
	UserID            string `gorm:"not null;index"`
	Name              string `gorm:"not null;index"`
	ICO               string `gorm:"index"` // national company identifier
	DIC               string `gorm:"index"` // VAT identifier
	Address           string
	City              string
	Zip               string
	Email             string
	BankAccount       string
	TradeRegisterInfo string
	IsDefault         bool `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Company is a client record, found-or-created when an invoice is
// submitted. Invoices keep their own snapshot of these fields, so later
// edits never change past invoices.
type Company struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"not null;index"`
	Name      string `gorm:"not null;index"`
	ICO       string `gorm:"index"`
	VatID     string `gorm:"index"`
	Address   string
	City      string
	Zip       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Company) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
