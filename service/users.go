package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"trading-journal/apperr"
	"trading-journal/models"
)

const minPasswordLength = 8

type Users struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewUsers(db *gorm.DB, logger *zap.Logger) *Users {
	return &Users{DB: db, Logger: logger}
}

// Register creates an account and seeds its default market biases in the
// same transaction.
func (u *Users) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	v := &apperr.ValidationError{}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		v.Add("email", "enter a valid email address")
	}
	if len(password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Email: email, Password: string(hash)}
	err = u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.ErrConflict
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrConflict
			}
			return fmt.Errorf("create user: %w", err)
		}
		seeded, err := SeedMarketBiases(tx, user.ID)
		if err != nil {
			return fmt.Errorf("seed market biases: %w", err)
		}
		u.Logger.Info("user registered", zap.Uint("user_id", user.ID), zap.Int64("biases_seeded", seeded))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate returns the user behind a matching email and password.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := u.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return &user, nil
}

func (u *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Exists reports whether the account behind a token is still present.
func (u *Users) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := u.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// SeedBiases re-runs the default bias seeding for an existing user.
func (u *Users) SeedBiases(ctx context.Context, id uint) (int64, error) {
	var seeded int64
	err := u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.ErrNotFound
		}
		var err error
		seeded, err = SeedMarketBiases(tx, id)
		return err
	})
	return seeded, err
}

// Delete removes a user together with everything they own.
func (u *Users) Delete(ctx context.Context, id uint) error {
	return u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}

		samples := tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.TradeSample{}).
			Select("id").
			Where("owner_id = ?", id)
		if err := tx.Where("sample_id IN (?)", samples).Delete(&models.Trade{}).Error; err != nil {
			return err
		}
		for _, model := range []any{
			&models.TradeLog{},
			&models.TradeSample{},
			&models.Playbook{},
			&models.DailyReportCard{},
			&models.Reminder{},
			&models.MarketDriver{},
			&models.MarketBias{},
		} {
			if err := tx.Where("owner_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		u.Logger.Info("user deleted", zap.Uint("user_id", id))
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
