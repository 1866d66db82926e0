package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/session"
	"github.com/crypto-dashboard/internal/storage"
)

// ProfileReader is the part of the account service the header needs
type ProfileReader interface {
	Ping(ctx context.Context) error
	GetUser(ctx context.Context) (*models.User, error)
}

// ProfileHeader is what the layout, wallet and side navigation show for the user
type ProfileHeader struct {
	FullName       string     `json:"fullName,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	Source         LoadSource `json:"source"`
}

// ProfileHeaderController loads the header avatar, falling back to the
// profile part of the settings snapshot when the backend fails.
type ProfileHeaderController struct {
	accounts  ProfileReader
	snapshots SnapshotStore
	keyPrefix string
}

// NewProfileHeaderController creates the controller
func NewProfileHeaderController(accounts ProfileReader, snapshots SnapshotStore, keyPrefix string) *ProfileHeaderController {
	return &ProfileHeaderController{
		accounts:  accounts,
		snapshots: snapshots,
		keyPrefix: keyPrefix,
	}
}

// Load returns the header of the session user. A user without a profile
// gets an empty header from the backend source.
func (c *ProfileHeaderController) Load(ctx context.Context) (ProfileHeader, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return ProfileHeader{}, err
	}
	logger := logging.FromContext(ctx).WithField(logging.FieldComponent, "profile_header")

	user, err := c.loadUser(ctx)
	if err == nil {
		header := ProfileHeader{Source: LoadSourceBackend}
		if user != nil {
			header.FullName = user.FullName
			header.ProfilePicture = user.ProfilePicture
		}
		return header, nil
	}
	logger.WithError(err).Warn("Failed to load user profile")

	if c.snapshots == nil {
		return ProfileHeader{Source: LoadSourceDefaults}, nil
	}

	raw, err := c.snapshots.Load(ctx, storage.SnapshotKey(c.keyPrefix, sess.Email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.WithError(err).Warn("Failed to read settings snapshot")
		}
		return ProfileHeader{Source: LoadSourceDefaults}, nil
	}

	var snap models.FormSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.WithError(err).Error("Failed to load user profile from snapshot")
		return ProfileHeader{Source: LoadSourceDefaults}, nil
	}
	if snap.FormData == nil {
		return ProfileHeader{Source: LoadSourceDefaults}, nil
	}
	return ProfileHeader{
		FullName:       snap.FormData.FullName,
		ProfilePicture: snap.FormData.ProfilePicture,
		Source:         LoadSourceSnapshot,
	}, nil
}

func (c *ProfileHeaderController) loadUser(ctx context.Context) (*models.User, error) {
	if err := c.accounts.Ping(ctx); err != nil {
		return nil, err
	}
	return c.accounts.GetUser(ctx)
}
