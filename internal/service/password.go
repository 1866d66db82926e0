package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/logging"
)

// MinPasswordLength is the shortest accepted new password
const MinPasswordLength = 8

// PasswordChange carries the password fields of the security form
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Empty reports whether no password field was filled in
func (p PasswordChange) Empty() bool {
	return p.CurrentPassword == "" && p.NewPassword == "" && p.ConfirmPassword == ""
}

// ChangePassword stores a bcrypt hash of the new password. The current
// password is verified only when a hash is already stored.
func (s *AccountService) ChangePassword(ctx context.Context, change PasswordChange) error {
	sess, err := s.writable(ctx)
	if err != nil {
		return err
	}

	if len(change.NewPassword) < MinPasswordLength {
		return apperrors.NewValidationError("newPassword", "new password must be at least 8 characters")
	}
	if change.NewPassword != change.ConfirmPassword {
		return apperrors.NewValidationError("confirmPassword", "passwords do not match")
	}

	user, err := s.requireUser(ctx, sess.Email)
	if err != nil {
		return err
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(change.CurrentPassword)); err != nil {
			return apperrors.NewValidationError("currentPassword", "current password is incorrect")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}

	if err := s.backend.Users.SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
		logging.FromContext(ctx).WithError(err).Error("Error changing password")
		return apperrors.NewDatabaseError("change password", err)
	}

	user.PasswordHash = string(hash)
	return nil
}
