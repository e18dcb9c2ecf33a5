package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

func sampleChecklist() *domain.GeneratedChecklist {
	return &domain.GeneratedChecklist{
		Country:  "DE",
		VisaType: "tourist",
		Items: []domain.ChecklistItem{
			domain.NewChecklistItem("passport", "Valid Passport", "", domain.CategoryRequired),
		},
		AIGenerated: true,
		GeneratedAt: time.Now().UTC(),
	}
}

func TestLocalCache_RoundTrip(t *testing.T) {
	c, err := NewLocalCache(4, time.Minute)
	require.NoError(t, err)

	_, ok := c.Get(context.Background(), "missing")
	assert.False(t, ok)

	checklist := sampleChecklist()
	c.Set(context.Background(), "app-1", checklist)

	got, ok := c.Get(context.Background(), "app-1")
	require.True(t, ok)
	assert.Equal(t, checklist, got)
}

func TestLocalCache_Expiry(t *testing.T) {
	c, err := NewLocalCache(4, 10*time.Millisecond)
	require.NoError(t, err)

	c.Set(context.Background(), "app-1", sampleChecklist())
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(context.Background(), "app-1")
	assert.False(t, ok)
}

func TestLocalCache_Eviction(t *testing.T) {
	c, err := NewLocalCache(2, time.Minute)
	require.NoError(t, err)

	c.Set(context.Background(), "a", sampleChecklist())
	c.Set(context.Background(), "b", sampleChecklist())
	c.Set(context.Background(), "c", sampleChecklist())

	_, ok := c.Get(context.Background(), "a")
	assert.False(t, ok, "oldest entry must be evicted")
	_, ok = c.Get(context.Background(), "c")
	assert.True(t, ok)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(nil, domain.CacheConfig{RedisURL: "not-a-url"})
	require.Error(t, err)
}
