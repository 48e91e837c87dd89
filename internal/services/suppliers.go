package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fakturio/fakturio/internal/apperr"
	"github.com/fakturio/fakturio/internal/models"
	"github.com/fakturio/fakturio/internal/validation"
)

type SupplierService struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewSupplierService(db *gorm.DB, log zerolog.Logger) *SupplierService {
	return &SupplierService{DB: db, Log: log}
}

// SupplierInput is the write shape shared by create and update.
type SupplierInput struct {
	Name              string `json:"name"`
	ICO               string `json:"ico"`
	DIC               string `json:"dic"`
	Address           string `json:"address"`
	City              string `json:"city"`
	Zip               string `json:"zip"`
	Email             string `json:"email"`
	BankAccount       string `json:"bank_account"`
	TradeRegisterInfo string `json:"trade_register_info"`
	IsDefault         bool   `json:"is_default"`
}

func (in SupplierInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if e := strings.TrimSpace(in.Email); e != "" && !strings.Contains(e, "@") {
		v["email"] = "invalid_email"
	}
	if !v.Empty() {
		return apperr.New(apperr.Validation, "validation_failed").WithFields(v)
	}
	return nil
}

func (s *SupplierService) List(ctx context.Context, userID string) ([]models.Supplier, error) {
	var out []models.Supplier
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, name ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "supplier_list_failed", err)
	}
	return out, nil
}

func (s *SupplierService) get(ctx context.Context, userID, id string) (*models.Supplier, error) {
	var sup models.Supplier
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&sup).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.New(apperr.NotFound, "supplier_not_found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "supplier_get_failed", err)
	}
	return &sup, nil
}

func (s *SupplierService) Get(ctx context.Context, userID, id string) (*models.Supplier, error) {
	return s.get(ctx, userID, id)
}

// Create stores a new billing identity. The user's first supplier
// becomes the default automatically.
func (s *SupplierService) Create(ctx context.Context, userID string, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sup := models.Supplier{
		UserID:            userID,
		Name:              in.Name,
		ICO:               in.ICO,
		DIC:               in.DIC,
		Address:           in.Address,
		City:              in.City,
		Zip:               in.Zip,
		Email:             in.Email,
		BankAccount:       in.BankAccount,
		TradeRegisterInfo: in.TradeRegisterInfo,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Supplier{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		sup.IsDefault = count == 0 || in.IsDefault
		if sup.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&sup).Error
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "supplier_create_failed", err)
	}
	s.Log.Info().Str("supplier_id", sup.ID).Msg("supplier created")
	return &sup, nil
}

func (s *SupplierService) Update(ctx context.Context, userID, id string, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sup, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	sup.Name = in.Name
	sup.ICO = in.ICO
	sup.DIC = in.DIC
	sup.Address = in.Address
	sup.City = in.City
	sup.Zip = in.Zip
	sup.Email = in.Email
	sup.BankAccount = in.BankAccount
	sup.TradeRegisterInfo = in.TradeRegisterInfo
	if err := s.DB.WithContext(ctx).Save(sup).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "supplier_update_failed", err)
	}
	return sup, nil
}

func (s *SupplierService) Delete(ctx context.Context, userID, id string) error {
	sup, err := s.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(sup).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "supplier_delete_failed", err)
	}
	return nil
}

// SetDefault makes the supplier the user's default. Clear and set happen
// in one transaction so no second default can be observed.
func (s *SupplierService) SetDefault(ctx context.Context, userID, id string) (*models.Supplier, error) {
	sup, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		return tx.Model(sup).Update("is_default", true).Error
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "supplier_update_failed", err)
	}
	sup.IsDefault = true
	return sup, nil
}

// Default returns the user's default supplier, or nil when none is set.
func (s *SupplierService) Default(ctx context.Context, userID string) (*models.Supplier, error) {
	var sup models.Supplier
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&sup).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "supplier_get_failed", err)
	}
	return &sup, nil
}

func clearDefault(tx *gorm.DB, userID string) error {
	return tx.Model(&models.Supplier{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
