package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

const minPasswordLength = 8

// Authenticate verifies a login id and password.
//
// Inactive and locked accounts are refused before the password is checked. A
// wrong password bumps the failure counter; a correct one resets it and stamps
// last_login_at.
func (b *Board) Authenticate(ctx context.Context, userID, password string) (*models.User, error) {
	var user models.User
	err := b.db.WithContext(ctx).Where("usr_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		loginTotal.WithLabelValues("unknown_user").Inc()
		return nil, &Error{Kind: ErrUnauthorized, Msg: "invalid username or password"}
	}
	if err != nil {
		return nil, internal("failed to load user", err)
	}
	if !user.Active {
		loginTotal.WithLabelValues("inactive").Inc()
		return nil, forbidden("account is inactive")
	}
	if user.FailedLoginCount >= b.maxFailures {
		loginTotal.WithLabelValues("locked").Inc()
		return nil, forbidden("account is locked after too many failed logins")
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		loginTotal.WithLabelValues("bad_password").Inc()
		if err := b.db.WithContext(ctx).Model(&models.User{}).Where("usr_id = ?", user.ID).
			UpdateColumn("login_fail_cnt", gorm.Expr("login_fail_cnt + ?", 1)).Error; err != nil {
			b.log.Warn("failed to record login failure", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, &Error{Kind: ErrUnauthorized, Msg: "invalid username or password"}
	}

	now := b.clock.Now()
	if err := b.db.WithContext(ctx).Model(&models.User{}).Where("usr_id = ?", user.ID).
		UpdateColumns(map[string]interface{}{"login_fail_cnt": 0, "last_login_at": now}).Error; err != nil {
		return nil, internal("failed to record login", err)
	}
	user.FailedLoginCount = 0
	user.LastLoginAt = &now
	loginTotal.WithLabelValues("ok").Inc()
	return &user, nil
}

// GetUser returns a user by id.
func (b *Board) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := b.db.WithContext(ctx).Where("usr_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, internal("failed to load user", err)
	}
	return &user, nil
}

// CreateUser registers an active account. It backs the admin CLI; there is no sign-up endpoint.
func (b *Board) CreateUser(ctx context.Context, userID, displayName, password string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	displayName = strings.TrimSpace(displayName)
	if userID == "" || len(userID) > 50 {
		return nil, invalid("user id must be 1 to 50 characters")
	}
	if displayName == "" {
		displayName = userID
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.User{}).Where("usr_id = ?", userID).Count(&count).Error; err != nil {
		return nil, internal("failed to check user", err)
	}
	if count > 0 {
		return nil, invalid("user %q already exists", userID)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}
	user := models.User{
		ID:           userID,
		DisplayName:  displayName,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    b.clock.Now(),
	}
	if err := b.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, internal("failed to create user", err)
	}
	return &user, nil
}

// SetPassword replaces a user's password and clears any lockout.
func (b *Board) SetPassword(ctx context.Context, userID, password string) error {
	if len(password) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return internal("failed to hash password", err)
	}
	res := b.db.WithContext(ctx).Model(&models.User{}).Where("usr_id = ?", userID).
		UpdateColumns(map[string]interface{}{"pwd": hash, "login_fail_cnt": 0})
	if res.Error != nil {
		return internal("failed to update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("user not found")
	}
	return nil
}

// SetActive enables or disables login for a user.
func (b *Board) SetActive(ctx context.Context, userID string, active bool) error {
	res := b.db.WithContext(ctx).Model(&models.User{}).Where("usr_id = ?", userID).
		UpdateColumn("is_active", active)
	if res.Error != nil {
		return internal("failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("user not found")
	}
	return nil
}
