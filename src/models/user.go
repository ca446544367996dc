package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	Username     string    `gorm:"column:username;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by GORM for this model
func (User) TableName() string {
	return "users.users"
}

// Credential is what sign-in needs to check a password and scope the session.
type Credential struct {
	ID           uint
	PasswordHash string
}
