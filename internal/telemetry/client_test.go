package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEnabled_OptOut(t *testing.T) {
	orig := PostHogAPIKey
	defer func() { PostHogAPIKey = orig }()
	PostHogAPIKey = "test-key"

	t.Setenv("CASEBOOK_TELEMETRY_TRACKING_ENABLED", "false")
	assert.False(t, IsEnabled())

	t.Setenv("CASEBOOK_TELEMETRY_TRACKING_ENABLED", "")
	assert.True(t, IsEnabled())
}

func TestIsEnabled_RequiresAPIKey(t *testing.T) {
	orig := PostHogAPIKey
	defer func() { PostHogAPIKey = orig }()
	PostHogAPIKey = ""

	assert.False(t, IsEnabled())
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	orig := PostHogAPIKey
	defer func() { PostHogAPIKey = orig }()
	PostHogAPIKey = ""

	c := New(nil)
	assert.Empty(t, c.GetTrackingID())

	// All no-op methods are safe to call.
	c.Track("anything", nil)
	c.TrackSyncCompleted(1, 0, 10)
	c.TrackConflictDetected("project")
	c.Close()
}
