package models

import "time"

// User represents a shop account.
type User struct {
	ID           uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string     `gorm:"column:username;type:varchar(150);not null;uniqueIndex"`
	Email        string     `gorm:"column:email;type:varchar(254);not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	IsSuperuser  bool       `gorm:"column:is_superuser;not null;default:false"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	DateJoined   time.Time  `gorm:"column:date_joined;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
