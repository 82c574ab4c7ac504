package model

import (
	"time"

	"gorm.io/gorm"
)

// UserStatus is the lifecycle state of a user account
type UserStatus string

const (
	UserStatusActive              UserStatus = "active"
	UserStatusBlocked             UserStatus = "blocked"
	UserStatusDeleted             UserStatus = "deleted"
	UserStatusPendingVerification UserStatus = "pending_verification"
)

const (
	// MaxFailedLoginAttempts locks the account once reached
	MaxFailedLoginAttempts = 5
	// LoginLockDuration is how long a locked account stays locked
	LoginLockDuration = 30 * time.Minute
)

// User represents a platform user
type User struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	UUID                string         `json:"uuid" gorm:"type:varchar(36);uniqueIndex:uk_users_uuid;not null"`
	RoleID              *uint          `json:"roleId,omitempty" gorm:"index"`
	Name                string         `json:"name" gorm:"type:varchar(150);not null"`
	Email               string         `json:"email" gorm:"type:varchar(255);uniqueIndex:uk_users_email;not null"`
	PasswordHash        string         `json:"-" gorm:"type:varchar(255);not null"`
	AvatarURL           string         `json:"avatarUrl,omitempty" gorm:"type:varchar(500)"`
	Timezone            string         `json:"timezone" gorm:"type:varchar(64);not null;default:UTC"`
	Locale              string         `json:"locale" gorm:"type:varchar(16);not null;default:en"`
	Phone               string         `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Status              UserStatus     `json:"status" gorm:"type:varchar(30);not null;default:pending_verification;index"`
	EmailVerifiedAt     *time.Time     `json:"emailVerifiedAt,omitempty"`
	PhoneVerifiedAt     *time.Time     `json:"phoneVerifiedAt,omitempty"`
	LastLoginAt         *time.Time     `json:"lastLoginAt,omitempty"`
	LastLoginIP         string         `json:"lastLoginIp,omitempty" gorm:"type:varchar(64)"`
	FailedLoginAttempts int            `json:"failedLoginAttempts" gorm:"not null;default:0"`
	LockedUntil         *time.Time     `json:"lockedUntil,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// IsLocked reports whether the account is locked at the given instant
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
