package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `json:"name" gorm:"not null"`
	Email        string         `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Role         string         `json:"role" gorm:"not null;default:'admin'"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanManage reports whether the user may mutate the given form. Super admins
// manage everything; admins only their own forms.
func (u *User) CanManage(form *Form) bool {
	return u.Role == RoleSuperAdmin || form.CreatedBy == u.ID
}
