package service

import (
	"context"

	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/session"
)

// InitializeUserData seeds the profile, settings, payment methods and
// watchlist of the session user, each only when the user has none. It is
// safe to call repeatedly and reports success instead of returning errors.
func (s *AccountService) InitializeUserData(ctx context.Context) bool {
	logger := logging.FromContext(ctx).WithField(logging.FieldComponent, "initializer")

	sess, err := session.Require(ctx)
	if err != nil {
		logger.WithError(err).Warn("Skipping initialization without a session")
		return false
	}
	if s.backend == nil {
		logger.Warn("Account backend not available, skipping initialization")
		return false
	}
	if err := s.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Account backend connection failed")
		return false
	}

	logger = logger.WithField(logging.FieldUser, sess.Email)

	user, err := s.lookupUser(ctx, sess.Email)
	if err != nil {
		logger.WithError(err).Warn("Error initializing user data")
		return false
	}
	if user == nil {
		if _, err := s.CreateOrUpdateUser(ctx, models.UserFields{}.WithDefaults()); err != nil {
			logger.WithError(err).Warn("Error initializing user data")
			return false
		}
	}

	settings, err := s.GetUserSettings(ctx)
	if err != nil {
		logger.WithError(err).Warn("Error initializing user data")
		return false
	}
	if settings == nil {
		if _, err := s.SaveUserSettings(ctx, models.DefaultSettingsFields()); err != nil {
			logger.WithError(err).Warn("Error initializing user data")
			return false
		}
	}

	methods, err := s.GetPaymentMethods(ctx)
	if err != nil {
		logger.WithError(err).Warn("Error initializing user data")
		return false
	}
	if len(methods) == 0 {
		if _, err := s.SavePaymentMethods(ctx, models.DefaultPaymentMethods()); err != nil {
			logger.WithError(err).Warn("Error initializing user data")
			return false
		}
	}

	watchlist, err := s.GetWatchlist(ctx)
	if err != nil {
		logger.WithError(err).Warn("Error initializing user data")
		return false
	}
	if len(watchlist) == 0 {
		for _, symbol := range models.DefaultWatchlistSymbols {
			if _, err := s.SaveWatchlistItem(ctx, symbol); err != nil {
				logger.WithError(err).Warnf("Could not add %s to watchlist", symbol)
			}
		}
	}

	logger.Info("User data initialized")
	return true
}
