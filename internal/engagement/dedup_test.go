package engagement

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentities(t *testing.T) {
	assert.Equal(t, "user:42", UserIdentity(42))

	ipID := IPIdentity("203.0.113.7")
	assert.True(t, strings.HasPrefix(ipID, "ip:"))
	assert.NotContains(t, ipID, "203.0.113.7", "raw addresses are never stored")
	assert.Equal(t, ipID, IPIdentity("203.0.113.7"), "hash is stable")
	assert.NotEqual(t, ipID, IPIdentity("203.0.113.8"))
}

func TestStaleDailyDayBoundary(t *testing.T) {
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)

	// Viewed at 23:59, checked again at 00:01: two minutes apart but
	// the local midnight was crossed, so the record is stale.
	recorded := time.Date(2024, 3, 10, 23, 59, 0, 0, loc)
	now := time.Date(2024, 3, 11, 0, 1, 0, 0, loc)
	assert.True(t, staleDaily(recorded, now, loc))

	// Same day, hours apart: still fresh.
	recorded = time.Date(2024, 3, 11, 1, 0, 0, 0, loc)
	now = time.Date(2024, 3, 11, 23, 0, 0, 0, loc)
	assert.False(t, staleDaily(recorded, now, loc))
}

func TestStaleDailyRespectsTimezone(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	// 16:59 UTC and 17:01 UTC straddle midnight in Bangkok (UTC+7).
	recorded := time.Date(2024, 3, 10, 16, 59, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 17, 1, 0, 0, time.UTC)
	assert.True(t, staleDaily(recorded, now, bangkok))
	assert.False(t, staleDaily(recorded, now, time.UTC))
}

func TestStaleRolling(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

	// A day boundary alone does not matter under the rolling policy.
	assert.False(t, staleRolling(now.Add(-2*time.Minute), now, 24*time.Hour))
	assert.False(t, staleRolling(now.Add(-23*time.Hour), now, 24*time.Hour))
	assert.True(t, staleRolling(now.Add(-24*time.Hour), now, 24*time.Hour))
	assert.True(t, staleRolling(now.Add(-48*time.Hour), now, 24*time.Hour))
}

func TestNewDeduplicatorRejectsUnknownPolicy(t *testing.T) {
	_, err := NewDeduplicator(nil, configFor("sliding", "UTC"))
	assert.Error(t, err)

	_, err = NewDeduplicator(nil, configFor(PolicyDaily, "Not/AZone"))
	assert.Error(t, err)

	d, err := NewDeduplicator(nil, configFor(PolicyRolling, "UTC"))
	require.NoError(t, err)
	assert.Equal(t, PolicyRolling, d.policy)
	assert.Equal(t, 24*time.Hour, d.window, "zero window falls back to 24h")
}
