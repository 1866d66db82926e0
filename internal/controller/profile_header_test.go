package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/models"
	"github.com/crypto-dashboard/internal/storage"
	"github.com/crypto-dashboard/internal/types"
)

func TestProfileHeaderController(t *testing.T) {
	f := newFixture(t)
	ctx := sessionContext()
	header := NewProfileHeaderController(f.accounts, f.snapshots, testPrefix)

	_, err := header.Load(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	got, err := header.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProfileHeader{Source: LoadSourceBackend}, got, "no profile yet")

	require.True(t, f.accounts.InitializeUserData(ctx))
	got, err = header.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, LoadSourceBackend, got.Source)
	assert.Equal(t, models.DefaultProfilePicture, got.ProfilePicture)
	assert.Equal(t, models.DefaultFullName, got.FullName)

	f.mem.SetErr(errors.New("backend down"))
	got, err = header.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, LoadSourceDefaults, got.Source, "no snapshot yet")

	c := f.controller(t)
	require.NoError(t, c.UpdateProfile(map[string]string{"profilePicture": "/images/custom.png", "fullName": "Snap"}))
	require.Equal(t, types.SaveStatusSaved, c.Save(ctx).Status)

	got, err = header.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProfileHeader{FullName: "Snap", ProfilePicture: "/images/custom.png", Source: LoadSourceSnapshot}, got)

	require.NoError(t, f.redis.Set(storage.SnapshotKey(testPrefix, testEmail), "garbage"))
	got, err = header.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, LoadSourceDefaults, got.Source)
}

func TestProfileHeaderController_NoStore(t *testing.T) {
	f := newFixture(t)
	f.mem.SetErr(errors.New("backend down"))

	got, err := NewProfileHeaderController(f.accounts, nil, testPrefix).Load(sessionContext())
	require.NoError(t, err)
	assert.Equal(t, LoadSourceDefaults, got.Source)
}

func TestStatusTracker(t *testing.T) {
	tracker := NewStatusTracker(30 * time.Millisecond)
	defer tracker.Stop()
	assert.Equal(t, types.SaveStatusIdle, tracker.Status())

	tracker.Begin()
	assert.Equal(t, types.SaveStatusSaving, tracker.Status())

	tracker.Finish(true)
	assert.Equal(t, types.SaveStatusSaved, tracker.Status())
	assert.Eventually(t, func() bool { return tracker.Status() == types.SaveStatusIdle }, time.Second, 5*time.Millisecond)

	tracker.Finish(false)
	assert.Equal(t, types.SaveStatusError, tracker.Status())
	// a new save cancels the pending reset
	tracker.Begin()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, types.SaveStatusSaving, tracker.Status())
	assert.False(t, tracker.ChangedAt().IsZero())
}
