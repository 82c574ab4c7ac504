package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-service/internal/apperrors"
	"contact-service/internal/dto"
	"contact-service/internal/model"
	"contact-service/internal/query"
	"contact-service/pkg/database"
	"contact-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// ErrInvalidCredentials is returned by Authenticate for any unknown email or wrong password
var ErrInvalidCredentials = apperrors.AccessDenied("Invalid email or password")

// UserService is the platform user registry
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperrors.FieldValidation("Invalid password",
			map[string]string{"password": fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.System("Failed to hash password", err)
	}
	return string(hash), nil
}

// Create registers a user pending email verification
func (s *UserService) Create(ctx context.Context, req dto.UserRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		RoleID:       req.RoleID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    req.AvatarURL,
		Timezone:     req.Timezone,
		Locale:       req.Locale,
		Phone:        req.Phone,
		Status:       model.UserStatusPendingVerification,
	}
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}
	if user.Locale == "" {
		user.Locale = "en"
	}

	err = database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.checkEmailFree(ctx, email, 0); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, duplicateUser(email)
	}
	if err != nil {
		return nil, dbError("Failed to create user", err)
	}

	logger.FromContext(ctx).Info("User created", zap.Uint("user_id", user.ID), zap.String("email", email))
	return user, nil
}

func (s *UserService) checkEmailFree(ctx context.Context, email string, exceptID uint) error {
	var count int64
	err := database.Conn(ctx, s.db).Unscoped().Model(&model.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	if err != nil {
		return dbError("Failed to check user email", err)
	}
	if count > 0 {
		return duplicateUser(email)
	}
	return nil
}

func duplicateUser(email string) error {
	return apperrors.Duplicate(fmt.Sprintf("User with email %s already exists", email))
}

// Get returns a live user by id
func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := database.Conn(ctx, s.db).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id, "Failed to load user")
	}
	return &user, nil
}

// GetByEmail returns a live user by email, ignoring case
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	var user model.User
	if err := database.Conn(ctx, s.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", email, "Failed to load user")
	}
	return &user, nil
}

// List returns a page of users ordered by id
func (s *UserService) List(ctx context.Context, params dto.ListParams) (*query.Page[model.User], error) {
	page, size, err := pageParams(params)
	if err != nil {
		return nil, err
	}

	q := database.Conn(ctx, s.db).Model(&model.User{})
	if params.IncludeDeleted {
		q = q.Unscoped()
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, dbError("Failed to count users", err)
	}

	var users []model.User
	if err := q.Order("id ASC").Limit(size).Offset(page * size).Find(&users).Error; err != nil {
		return nil, dbError("Failed to list users", err)
	}

	result := query.NewPage(users, total, page, size)
	return &result, nil
}

// Update changes the provided fields; a new password is re-hashed
func (s *UserService) Update(ctx context.Context, id uint, req dto.UpdateUserRequest) (*model.User, error) {
	var user *model.User
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if user, err = s.Get(ctx, id); err != nil {
			return err
		}

		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if email != user.Email {
				if err := s.checkEmailFree(ctx, email, user.ID); err != nil {
					return err
				}
				user.Email = email
				user.EmailVerifiedAt = nil
			}
		}
		if req.Password != nil {
			hash, err := hashPassword(*req.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.RoleID != nil {
			user.RoleID = req.RoleID
		}
		if req.AvatarURL != nil {
			user.AvatarURL = *req.AvatarURL
		}
		if req.Timezone != nil {
			user.Timezone = *req.Timezone
		}
		if req.Locale != nil {
			user.Locale = *req.Locale
		}
		if req.Phone != nil && *req.Phone != user.Phone {
			user.Phone = *req.Phone
			user.PhoneVerifiedAt = nil
		}
		return tx.Save(user).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, duplicateUser(user.Email)
	}
	if err != nil {
		return nil, dbError("Failed to update user", err)
	}
	return user, nil
}

// VerifyEmail marks the email verified and activates a pending account
func (s *UserService) VerifyEmail(ctx context.Context, id uint) (*model.User, error) {
	return s.mutate(ctx, id, "Failed to verify email", func(u *model.User) error {
		now := s.now()
		u.EmailVerifiedAt = &now
		if u.Status == model.UserStatusPendingVerification {
			u.Status = model.UserStatusActive
		}
		return nil
	})
}

// VerifyPhone marks the phone verified
func (s *UserService) VerifyPhone(ctx context.Context, id uint) (*model.User, error) {
	return s.mutate(ctx, id, "Failed to verify phone", func(u *model.User) error {
		if u.Phone == "" {
			return apperrors.FieldValidation("User has no phone number", map[string]string{"phone": "is required"})
		}
		now := s.now()
		u.PhoneVerifiedAt = &now
		return nil
	})
}

// Block disables the account
func (s *UserService) Block(ctx context.Context, id uint) (*model.User, error) {
	return s.mutate(ctx, id, "Failed to block user", func(u *model.User) error {
		u.Status = model.UserStatusBlocked
		return nil
	})
}

// Unblock re-enables the account and clears any login lock
func (s *UserService) Unblock(ctx context.Context, id uint) (*model.User, error) {
	return s.mutate(ctx, id, "Failed to unblock user", func(u *model.User) error {
		u.Status = model.UserStatusActive
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		return nil
	})
}

// RecordLoginAttempt tracks a login. Failures accumulate and lock the
// account for LoginLockDuration once MaxFailedLoginAttempts is reached;
// a success resets the counter.
func (s *UserService) RecordLoginAttempt(ctx context.Context, id uint, success bool, ip string) (*model.User, error) {
	return s.mutate(ctx, id, "Failed to record login attempt", func(u *model.User) error {
		now := s.now()
		if success {
			u.FailedLoginAttempts = 0
			u.LockedUntil = nil
			u.LastLoginAt = &now
			u.LastLoginIP = ip
			return nil
		}

		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= model.MaxFailedLoginAttempts {
			until := now.Add(model.LoginLockDuration)
			u.LockedUntil = &until
			logger.FromContext(ctx).Warn("User locked after failed logins",
				zap.Uint("user_id", u.ID),
				zap.Int("attempts", u.FailedLoginAttempts),
				zap.Time("locked_until", until))
		}
		return nil
	})
}

// Authenticate checks credentials and records the attempt with the caller's ip
func (s *UserService) Authenticate(ctx context.Context, email, password, ip string) (*model.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	switch {
	case user.Status == model.UserStatusBlocked || user.Status == model.UserStatusDeleted:
		return nil, apperrors.AccessDenied("User account is disabled")
	case user.IsLocked(s.now()):
		return nil, apperrors.AccessDenied(fmt.Sprintf("User account is locked until %s", user.LockedUntil.Format(time.RFC3339)))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if _, recErr := s.RecordLoginAttempt(ctx, user.ID, false, ip); recErr != nil {
			return nil, recErr
		}
		return nil, ErrInvalidCredentials
	}
	return s.RecordLoginAttempt(ctx, user.ID, true, ip)
}

// SoftDelete marks the user deleted and hides it from default queries
func (s *UserService) SoftDelete(ctx context.Context, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		user, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(user).Update("status", model.UserStatusDeleted).Error; err != nil {
			return dbError("Failed to delete user", err)
		}
		return dbError("Failed to delete user", tx.Delete(user).Error)
	})
}

// HardDelete removes the user row, deleted or not, with its memberships
func (s *UserService) HardDelete(ctx context.Context, id uint) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Unscoped().Delete(&model.User{}, id)
		if res.Error != nil {
			return dbError("Failed to delete user", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("User", id)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.OrganizationMember{}).Error; err != nil {
			return dbError("Failed to delete memberships", err)
		}
		logger.FromContext(ctx).Warn("User permanently deleted", zap.Uint("user_id", id))
		return nil
	})
}

func (s *UserService) mutate(ctx context.Context, id uint, msg string, fn func(*model.User) error) (*model.User, error) {
	var user *model.User
	err := database.Transaction(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if user, err = s.Get(ctx, id); err != nil {
			return err
		}
		if err := fn(user); err != nil {
			return err
		}
		return dbError(msg, tx.Save(user).Error)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
