package models

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
)

// UserModel is the persistence model for a signed-in operator.
type UserModel struct {
	BaseModel
	GoogleID    string `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_google_id"`
	Name        string `gorm:"type:varchar(200)"`
	Email       string `gorm:"type:varchar(200);index:idx_users_email"`
	Image       string `gorm:"type:text"`
	LastLoginAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:  m.BaseModel.ToDomain(),
		GoogleID:    m.GoogleID,
		Name:        m.Name,
		Email:       m.Email,
		Image:       m.Image,
		LastLoginAt: m.LastLoginAt,
	}
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		GoogleID:    u.GoogleID,
		Name:        u.Name,
		Email:       u.Email,
		Image:       u.Image,
		LastLoginAt: u.LastLoginAt,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
