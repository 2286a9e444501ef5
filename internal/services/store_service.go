package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/utils"
)

// ChangeNotifier publishes "table changed" events after a mutation commits.
type ChangeNotifier interface {
	Notify(ctx context.Context, table string) error
}

// StoreGateway implements Gateway on a local database. It performs the same
// authorisation the hosted stored procedures do.
type StoreGateway struct {
	db       *gorm.DB
	notifier ChangeNotifier
	log      zerolog.Logger
}

// NewStoreGateway builds a StoreGateway. notifier may be nil.
func NewStoreGateway(db *gorm.DB, notifier ChangeNotifier, log zerolog.Logger) *StoreGateway {
	return &StoreGateway{db: db, notifier: notifier, log: log}
}

// authenticate returns the account matching creds or ErrUnauthorized.
func (s *StoreGateway) authenticate(ctx context.Context, creds Credentials) (*models.AdminAccount, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	creds = creds.Normalized()

	var account models.AdminAccount
	err := s.db.WithContext(ctx).Where("email = ?", creds.Email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !utils.CheckAccessKey(account.AccessKey, creds.Key) {
		return nil, ErrUnauthorized
	}
	return &account, nil
}

func (s *StoreGateway) notify(ctx context.Context, table string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, table); err != nil {
		s.log.Warn().Err(err).Str("table", table).Msg("failed to publish change notification")
	}
}

func (s *StoreGateway) VerifyAdminKey(ctx context.Context, creds Credentials) (bool, error) {
	_, err := s.authenticate(ctx, creds)
	if errors.Is(err, ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *StoreGateway) List(ctx context.Context, category string) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	query := s.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("nation_key = ?", category)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *StoreGateway) Upsert(ctx context.Context, item models.ContentItem, creds Credentials) (models.ContentItem, error) {
	if _, err := s.authenticate(ctx, creds); err != nil {
		return models.ContentItem{}, err
	}
	if err := validateItem(item); err != nil {
		return models.ContentItem{}, err
	}

	item.NationKey = strings.TrimSpace(item.NationKey)
	item.StartDate = strings.TrimSpace(item.StartDate)
	item.EndDate = strings.TrimSpace(item.EndDate)

	db := s.db.WithContext(ctx)
	if item.ID == 0 {
		if err := db.Create(&item).Error; err != nil {
			return models.ContentItem{}, err
		}
	} else {
		var existing models.ContentItem
		if err := db.First(&existing, item.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ContentItem{}, ErrNotFound
			}
			return models.ContentItem{}, err
		}

		updates := map[string]interface{}{
			"nation_key":  item.NationKey,
			"title":       item.Title,
			"url":         item.URL,
			"banner_link": item.BannerLink,
			"start_date":  item.StartDate,
			"end_date":    item.EndDate,
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return models.ContentItem{}, err
		}
		if err := db.First(&item, item.ID).Error; err != nil {
			return models.ContentItem{}, err
		}
	}

	s.notify(ctx, models.ContentItem{}.TableName())
	return item, nil
}

func (s *StoreGateway) Delete(ctx context.Context, ids []int64, creds Credentials) error {
	if _, err := s.authenticate(ctx, creds); err != nil {
		return err
	}
	if len(ids) == 0 {
		return NewValidationError("p_ids", "no items selected")
	}

	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ContentItem{}).Error; err != nil {
		return err
	}

	s.notify(ctx, models.ContentItem{}.TableName())
	return nil
}

func (s *StoreGateway) GetHomeSettings(ctx context.Context) (*models.HomeSettings, error) {
	var settings models.HomeSettings
	err := s.db.WithContext(ctx).First(&settings, models.HomeSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *StoreGateway) SetHomeSettings(ctx context.Context, settings models.HomeSettings, creds Credentials) error {
	if _, err := s.authenticate(ctx, creds); err != nil {
		return err
	}

	settings.ID = models.HomeSettingsID
	settings.BgPcURL = strings.TrimSpace(settings.BgPcURL)
	settings.BgMobileURL = strings.TrimSpace(settings.BgMobileURL)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bg_pc_url", "bg_mobile_url", "updated_at"}),
	}).Create(&settings).Error
	if err != nil {
		return err
	}

	s.notify(ctx, models.HomeSettings{}.TableName())
	return nil
}

func (s *StoreGateway) ListAdmins(ctx context.Context, creds Credentials) ([]models.AdminAccount, error) {
	if _, err := s.authenticate(ctx, creds); err != nil {
		return nil, err
	}

	admins := []models.AdminAccount{}
	err := s.db.WithContext(ctx).
		Select("email", "role", "created_at", "updated_at").
		Order("email asc").
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}

func (s *StoreGateway) ManageAdmin(ctx context.Context, action AdminAction, target AdminTarget, creds Credentials) error {
	caller, err := s.authenticate(ctx, creds)
	if err != nil {
		return err
	}
	if !caller.IsSenior() {
		return ErrForbidden
	}
	if err := validateTarget(action, target); err != nil {
		return err
	}

	target.Email = strings.TrimSpace(target.Email)
	db := s.db.WithContext(ctx)

	switch action {
	case AdminAdd:
		var count int64
		if err := db.Model(&models.AdminAccount{}).Where("email = ?", target.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return NewValidationError("p_target_email", "admin already exists")
		}

		hash, err := utils.HashAccessKey(target.Password)
		if err != nil {
			return err
		}
		return db.Create(&models.AdminAccount{Email: target.Email, AccessKey: hash, Role: target.Role}).Error

	case AdminUpdate:
		if strings.EqualFold(target.Email, caller.Email) && target.Role != models.RoleSeniorAdmin {
			return NewValidationError("p_target_role", "you cannot remove your own senior role")
		}
		updates := map[string]interface{}{"role": target.Role}
		if target.Password != "" {
			hash, err := utils.HashAccessKey(target.Password)
			if err != nil {
				return err
			}
			updates["access_key"] = hash
		}
		res := db.Model(&models.AdminAccount{}).Where("email = ?", target.Email).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil

	default:
		if strings.EqualFold(target.Email, caller.Email) {
			return NewValidationError("p_target_email", "you cannot remove your own access")
		}
		res := db.Where("email = ?", target.Email).Delete(&models.AdminAccount{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}
}

// EnsureSeniorAdmin creates the first senior admin when the whitelist is
// empty. It is a no-op once any account exists.
func (s *StoreGateway) EnsureSeniorAdmin(ctx context.Context, email, key string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(key) == "" {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AdminAccount{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashAccessKey(strings.TrimSpace(key))
	if err != nil {
		return err
	}
	s.log.Info().Str("email", utils.MaskEmail(email)).Msg("seeding initial senior admin")
	return s.db.WithContext(ctx).Create(&models.AdminAccount{Email: email, AccessKey: hash, Role: models.RoleSeniorAdmin}).Error
}
