package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleChef  UserRole = "CHEF"
	RoleStaff UserRole = "STAFF"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FullName     string    `gorm:"size:100;not null" json:"fullName"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	Department   string    `gorm:"size:100" json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
