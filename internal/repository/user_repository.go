package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gatekeeper-bot/internal/model"
)

// UserRepository keeps the registry of users that have talked to the bot.
// Every call checks out its own connection and returns it before exiting;
// there are no transactions spanning several calls.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Exists reports whether userID is already registered.
func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := ensureUsersTable(conn); err != nil {
			return err
		}
		return conn.Model(&model.User{}).Where("user_id = ?", userID).Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("%w: find user %d: %w", ErrStorage, userID, err)
	}
	return count > 0, nil
}

// Add registers userID. Adding an already registered user is a no-op.
func (r *UserRepository) Add(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		user := model.User{UserID: userID}
		return conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
	})
	if err != nil {
		return fmt.Errorf("%w: add user %d: %w", ErrStorage, userID, err)
	}
	return nil
}

// ListAll returns every registered user ordered by surrogate id.
func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return conn.Order("id ASC").Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrStorage, err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return conn.Model(&model.User{}).Count(&count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count users: %w", ErrStorage, err)
	}
	return count, nil
}
