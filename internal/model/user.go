package model

import "time"

// User is a Telegram user that has sent /start at least once.
type User struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"column:user_id;uniqueIndex;not null"`
	CreatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
