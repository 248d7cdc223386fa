package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/app/models"
)

// UserStore handles database operations for User.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user. A unique-key violation becomes apperr.Duplicate.
func (r *UserStore) Create(ctx context.Context, u *models.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindDuplicate, "User already exists", err)
	}
	return fmt.Errorf("users: create: %w", err)
}

// FindByEmail looks up a user by email address.
func (r *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &u, nil
}

// FindByID looks up a user by primary key.
func (r *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &u, nil
}

func (r *UserStore) Exists(ctx context.Context, email, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("users: exists: %w", err)
	}
	return n > 0, nil
}

// notFound maps gorm.ErrRecordNotFound onto apperr.NotFound and wraps
// anything else.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return fmt.Errorf("%s: %w", strings.ToLower(msg), err)
}

// isUniqueViolation catches drivers that do not translate their errors
// (sqlite reports "UNIQUE constraint failed").
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
