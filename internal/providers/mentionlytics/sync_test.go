package mentionlytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroom/warroom/internal/core"
)

type memoryImporter struct {
	mu   sync.Mutex
	seen map[string]core.Mention
	err  error
}

func (m *memoryImporter) ImportMentions(ctx context.Context, mentions []core.Mention) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.seen == nil {
		m.seen = map[string]core.Mention{}
	}
	inserted := 0
	for _, mention := range mentions {
		if _, ok := m.seen[mention.ExternalID]; ok {
			continue
		}
		m.seen[mention.ExternalID] = mention
		inserted++
	}
	return inserted, nil
}

const liveMentions = `{
	"data": [
		{"id":"m1","text":"great rally","source":{"name":"Twitter"},"author":{"name":"ann"},
		 "published_at":"2024-03-01T10:00:00Z","sentiment":{"label":"positive"},"reach":1200},
		{"id":"m2","text":"bad look","source":{"name":"News"},"author":{"name":"bob"},
		 "published_at":"not a time","sentiment":{"label":"negative"},"reach":50}
	]
}`

func TestSyncMentionsStoresLiveMentionsOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(liveMentions))
	}))
	defer server.Close()

	svc, _ := newTestService(t, server.URL, "token")
	store := &memoryImporter{}
	fixed := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	importer := NewImporter(svc, store, nil)
	importer.Now = func() time.Time { return fixed }
	ctx := context.Background()

	report, err := importer.SyncMentions(ctx, SyncRequest{CampaignID: 3})
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 2, report.MentionsProcessed)
	assert.Equal(t, 2, report.NewMentions)
	assert.Equal(t, fixed, report.LastSyncAt)

	first := store.seen["m1"]
	assert.Equal(t, int64(3), first.CampaignID)
	assert.Equal(t, "twitter", first.Platform)
	require.NotNil(t, first.Sentiment)
	assert.InDelta(t, 0.7, *first.Sentiment, 1e-9)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), first.MentionedAt)

	second := store.seen["m2"]
	assert.InDelta(t, -0.6, *second.Sentiment, 1e-9)
	assert.Equal(t, fixed, second.MentionedAt)

	again, err := importer.SyncMentions(ctx, SyncRequest{CampaignID: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, again.MentionsProcessed)
	assert.Zero(t, again.NewMentions)
	assert.Equal(t, int32(1), calls.Load(), "second sync is served from cache")

	_, err = importer.SyncMentions(ctx, SyncRequest{CampaignID: 3, ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSyncMentionsNeverStoresPlaceholders(t *testing.T) {
	svc, _ := newTestService(t, "http://127.0.0.1:1", "")
	store := &memoryImporter{}

	report, err := NewImporter(svc, store, nil).SyncMentions(context.Background(), SyncRequest{CampaignID: 1, Limit: 5})
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 5, report.MentionsProcessed)
	assert.Equal(t, 5, report.SkippedMock)
	assert.Zero(t, report.NewMentions)
	assert.Empty(t, store.seen)
}

func TestSyncMentionsReportsUpstreamAndStoreFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, _ := newTestService(t, server.URL, "token")
	report, err := NewImporter(svc, &memoryImporter{}, nil).SyncMentions(context.Background(), SyncRequest{CampaignID: 1})
	require.NoError(t, err)
	assert.False(t, report.Success)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], MessageFallback)

	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(liveMentions))
	}))
	defer live.Close()

	svc, _ = newTestService(t, live.URL, "token")
	broken := &memoryImporter{err: errors.New("disk full")}
	report, err = NewImporter(svc, broken, nil).SyncMentions(context.Background(), SyncRequest{CampaignID: 1})
	require.NoError(t, err)
	assert.False(t, report.Success)
	assert.Equal(t, []string{"Failed to store mentions: disk full"}, report.Errors)
}

func TestSyncMentionsRejectsInvalidRequests(t *testing.T) {
	svc, _ := newTestService(t, "http://127.0.0.1:1", "")
	importer := NewImporter(svc, &memoryImporter{}, nil)

	_, err := importer.SyncMentions(context.Background(), SyncRequest{})
	assert.ErrorIs(t, err, ErrInvalidSync)

	_, err = importer.SyncMentions(context.Background(), SyncRequest{CampaignID: 1, Limit: 101})
	assert.ErrorIs(t, err, ErrInvalidSync)
}
