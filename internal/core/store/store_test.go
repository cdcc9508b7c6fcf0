package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/config"
	"github.com/warroom/warroom/internal/core"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./warroom.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./warroom.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestRateLimitQueryValidate(t *testing.T) {
	require.Error(t, RateLimitQuery{}.Validate())
	require.NoError(t, RateLimitQuery{All: true}.Validate())
	require.NoError(t, RateLimitQuery{Identifier: "global"}.Validate())

	where, args, err := RateLimitQuery{Prefix: "10."}.whereClause()
	require.NoError(t, err)
	require.Equal(t, "WHERE identifier LIKE ?", where)
	require.Equal(t, []any{"10.%"}, args)
}

func TestNilStoreErrors(t *testing.T) {
	var s *Store
	_, err := s.ListMentions(context.Background(), core.MentionFilter{})
	require.Error(t, err)
	_, _, err = s.GetCacheEntry(context.Background(), "k")
	require.Error(t, err)
	require.NoError(t, s.Close())
}
