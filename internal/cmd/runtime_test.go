package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/providers/mentionlytics"
)

func testConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	for key, value := range overrides {
		v.Set(key, value)
	}
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestNewAppMemoryBackendsSkipStore(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"cache.default_ttl":  "90s",
		"cache.fallback_ttl": "15s",
	})

	a, err := newApp(context.Background(), cfg, nil, false)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.store)
	assert.Nil(t, a.syncer)
	assert.Nil(t, a.scanner)
	require.NotNil(t, a.social)
	assert.Equal(t, 90*time.Second, a.social.TTL)
	assert.Equal(t, 15*time.Second, a.social.FallbackTTL)
	assert.Equal(t, "client:"+mentionlytics.Provider, a.social.Client.Identifier)

	api := a.api()
	assert.NotNil(t, api.Social)
	assert.Nil(t, api.Mentions)
	assert.Nil(t, api.Crises)
	assert.Nil(t, api.Scanner)
	assert.Nil(t, api.Syncer)
	assert.Nil(t, api.MentionSync)
	assert.Nil(t, api.Campaigns)
	assert.Nil(t, api.Alerts)
	assert.Nil(t, api.Staff)
	assert.Nil(t, api.Metrics)
}

func TestNewAppServesMockDataWithoutToken(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t, nil), nil, false)
	require.NoError(t, err)
	defer a.Close()

	result, err := a.social.Run(context.Background(), mentionlytics.OpSentiment, nil)
	require.NoError(t, err)
	resp, ok := result.(mentionlytics.Response[mentionlytics.SentimentSummary])
	require.True(t, ok)
	assert.True(t, resp.Success)
}

func TestHTTPPolicy(t *testing.T) {
	a := &app{cfg: testConfig(t, map[string]any{
		"rate_limit.http.max_attempts": 5,
		"rate_limit.http.window":       "30s",
	})}
	policy, ok := a.httpPolicy()
	require.True(t, ok)
	assert.Equal(t, "http", policy.Name)
	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 30*time.Second, policy.Window)

	a.cfg.RateLimit.HTTP.Enabled = false
	_, ok = a.httpPolicy()
	assert.False(t, ok)
}

func TestStartJanitorsWithoutScanner(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t, map[string]any{"crisis.scan_interval": "1m"}), nil, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startJanitors(ctx)
	assert.Len(t, a.janitors, 2)
	a.Close()
}

func TestUsesStore(t *testing.T) {
	assert.True(t, usesStore("store"))
	assert.True(t, usesStore(" Store "))
	assert.False(t, usesStore("memory"))
	assert.False(t, usesStore(""))
}

func TestCloseNilApp(t *testing.T) {
	var a *app
	assert.NotPanics(t, a.Close)
}
