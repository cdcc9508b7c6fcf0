// Package mentionlytics proxies the Mentionlytics social-listening API.
// Every operation degrades to placeholder data instead of failing, so callers
// always get a response envelope unless their parameters are invalid.
package mentionlytics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warroom/warroom/internal/core/apiclient"
	"github.com/warroom/warroom/internal/core/cache"
	"github.com/warroom/warroom/internal/metrics"
	"github.com/warroom/warroom/internal/observability"
)

// Provider is the name used for metrics and cache namespacing.
const Provider = "mentionlytics"

// Response messages.
const (
	MessageCached       = "Data retrieved from cache"
	MessageUnconfigured = "Mock data returned (API token not configured)"
	MessageFallback     = "API unavailable, returning mock data"
)

// Operation names, also used as cache key prefixes.
const (
	OpMentions     = "mentions"
	OpSentiment    = "sentiment"
	OpGeo          = "geo"
	OpInfluencers  = "influencers"
	OpShareOfVoice = "share-of-voice"
	OpTrending     = "trending"
	OpFeed         = "feed"
)

// ErrUnknownOperation is returned by Run for unsupported operation names.
var ErrUnknownOperation = errors.New("unknown operation")

// Operations lists every supported operation.
var Operations = []string{OpMentions, OpSentiment, OpGeo, OpInfluencers, OpShareOfVoice, OpTrending, OpFeed}

// Service answers social-listening queries.
type Service struct {
	Client      *apiclient.Client
	Cache       *cache.Cache
	TTL         time.Duration
	FallbackTTL time.Duration
	Mock        *Mock
	Logger      observability.Logger

	mockOnce sync.Once
}

// NewService wires a service around client. A nil store keeps an in-memory cache.
func NewService(client *apiclient.Client, responses *cache.Cache, logger observability.Logger) *Service {
	if responses == nil {
		responses = cache.New(nil, logger)
	}
	return &Service{
		Client:      client,
		Cache:       responses,
		TTL:         cache.DefaultTTL,
		FallbackTTL: cache.FallbackTTL,
		Mock:        NewMock(uint64(time.Now().UnixNano())),
		Logger:      logger,
	}
}

type params interface {
	applyDefaults()
	values() map[string]any
	upstream() map[string]any
}

// query describes one operation run.
type query[T any] struct {
	op        string
	path      string
	params    params
	mock      func() T
	transform func(body []byte) (T, error)
}

func run[T any](ctx context.Context, s *Service, q query[T]) (Response[T], error) {
	q.params.applyDefaults()
	if err := validateParams(q.params); err != nil {
		return Response[T]{}, err
	}

	logger := observability.OrNop(s.Logger)
	values := q.params.values()
	key := cache.GenerateKey(q.op, values)

	if s.Cache != nil {
		cached, ok, err := cache.GetJSON[T](ctx, s.Cache, key)
		if err != nil {
			logger.Warn("Cache lookup failed", zap.String("operation", q.op), zap.Error(err))
		} else if ok {
			logger.Info("Returning cached data", zap.String("operation", q.op))
			return Response[T]{Data: cached, Success: true, Message: MessageCached}, nil
		}
	}

	if !s.Client.IsConfigured() {
		logger.Warn("Mentionlytics API token not configured, using mock data", zap.String("operation", q.op))
		metrics.RecordFallback(Provider, q.op, "unconfigured")
		data := q.mock()
		store(ctx, s, q.op, key, data, s.FallbackTTL)
		return Response[T]{Data: data, Success: true, Message: MessageUnconfigured}, nil
	}

	var data T
	body, err := s.Client.Do(ctx, q.path, q.params.upstream(), apiclient.RequestOptions{})
	if err == nil {
		data, err = q.transform(body)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response[T]{}, ctxErr
		}
		logger.Error("Mentionlytics API request failed",
			zap.String("operation", q.op),
			zap.Any("params", values),
			zap.Error(err),
		)
		metrics.RecordFallback(Provider, q.op, "upstream_error")
		data = q.mock()
		store(ctx, s, q.op, key, data, s.FallbackTTL)
		return Response[T]{Data: data, Success: false, Message: MessageFallback}, nil
	}

	store(ctx, s, q.op, key, data, s.TTL)
	logger.Info("Retrieved data from Mentionlytics API",
		zap.String("operation", q.op),
		zap.Any("params", values),
	)
	return Response[T]{Data: data, Success: true}, nil
}

func store[T any](ctx context.Context, s *Service, op, key string, data T, ttl time.Duration) {
	if s.Cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.Cache, key, data, ttl); err != nil {
		observability.OrNop(s.Logger).Warn("Failed to cache response", zap.String("operation", op), zap.Error(err))
	}
}

func decode[R, T any](convert func(R) T) func([]byte) (T, error) {
	return func(body []byte) (T, error) {
		var raw R
		if err := json.Unmarshal(body, &raw); err != nil {
			var zero T
			return zero, fmt.Errorf("decode response: %w", err)
		}
		return convert(raw), nil
	}
}

func (s *Service) Mentions(ctx context.Context, p MentionsParams) (Response[[]MentionItem], error) {
	return run(ctx, s, query[[]MentionItem]{
		op:     OpMentions,
		path:   "mentions",
		params: &p,
		mock:   func() []MentionItem { return s.mock().Mentions(*p.Limit) },
		transform: decode(func(raw apiMentions) []MentionItem {
			out := make([]MentionItem, 0, len(raw.Data))
			for _, item := range raw.Data {
				out = append(out, MentionItem{
					ID:        item.ID,
					Text:      item.Text,
					Platform:  strings.ToLower(item.Source.Name),
					Author:    item.Author.Name,
					Timestamp: item.PublishedAt,
					Sentiment: MapSentiment(item.Sentiment.Label),
					Reach:     item.Reach,
				})
			}
			return out
		}),
	})
}

func (s *Service) Sentiment(ctx context.Context, p SentimentParams) (Response[SentimentSummary], error) {
	return run(ctx, s, query[SentimentSummary]{
		op:     OpSentiment,
		path:   "sentiment",
		params: &p,
		mock:   func() SentimentSummary { return s.mock().Sentiment() },
		transform: decode(func(raw apiSentiment) SentimentSummary {
			return raw.Data.Distribution
		}),
	})
}

func (s *Service) Geo(ctx context.Context, p GeoParams) (Response[[]GeoLocation], error) {
	return run(ctx, s, query[[]GeoLocation]{
		op:     OpGeo,
		path:   "mentions/geography",
		params: &p,
		mock:   func() []GeoLocation { return s.mock().Geo(*p.Limit) },
		transform: decode(func(raw apiGeo) []GeoLocation {
			out := make([]GeoLocation, 0, len(raw.Data))
			for _, item := range raw.Data {
				loc := GeoLocation{
					Location:  item.Location,
					Mentions:  item.MentionsCount,
					Sentiment: item.AvgSentiment,
				}
				if item.Coordinates != nil {
					loc.Coordinates = &Coordinates{Lat: item.Coordinates.Latitude, Lng: item.Coordinates.Longitude}
				}
				out = append(out, loc)
			}
			return out
		}),
	})
}

func (s *Service) Influencers(ctx context.Context, p InfluencersParams) (Response[[]Influencer], error) {
	return run(ctx, s, query[[]Influencer]{
		op:     OpInfluencers,
		path:   "influencers",
		params: &p,
		mock:   func() []Influencer { return s.mock().Influencers(*p.Limit) },
		transform: decode(func(raw apiInfluencers) []Influencer {
			out := make([]Influencer, 0, len(raw.Data))
			for _, item := range raw.Data {
				name := item.Name
				if name == "" {
					name = item.Username
				}
				out = append(out, Influencer{
					Name:           name,
					Followers:      item.FollowersCount,
					EngagementRate: item.EngagementRate,
					Platform:       strings.ToLower(item.Platform),
					InfluenceScore: item.InfluenceScore,
				})
			}
			return out
		}),
	})
}

func (s *Service) ShareOfVoice(ctx context.Context, p ShareOfVoiceParams) (Response[[]ShareOfVoice], error) {
	return run(ctx, s, query[[]ShareOfVoice]{
		op:     OpShareOfVoice,
		path:   "share-of-voice",
		params: &p,
		mock:   func() []ShareOfVoice { return s.mock().ShareOfVoice(p.Brands) },
		transform: decode(func(raw apiShareOfVoice) []ShareOfVoice {
			out := make([]ShareOfVoice, 0, len(raw.Data.ShareOfVoice))
			for _, item := range raw.Data.ShareOfVoice {
				out = append(out, ShareOfVoice{
					Brand:      item.Brand,
					Percentage: item.Percentage,
					Mentions:   item.MentionsCount,
					Sentiment:  item.AvgSentiment,
				})
			}
			return out
		}),
	})
}

func (s *Service) Trending(ctx context.Context, p TrendingParams) (Response[[]TrendingTopic], error) {
	return run(ctx, s, query[[]TrendingTopic]{
		op:     OpTrending,
		path:   "trending",
		params: &p,
		mock:   func() []TrendingTopic { return s.mock().Trending(*p.Limit) },
		transform: decode(func(raw apiTrending) []TrendingTopic {
			out := make([]TrendingTopic, 0, len(raw.Data))
			for _, item := range raw.Data {
				topic := item.Topic
				if topic == "" {
					topic = item.Keyword
				}
				out = append(out, TrendingTopic{
					Topic:      topic,
					Mentions:   item.MentionsCount,
					GrowthRate: item.GrowthRate,
					Sentiment:  item.AvgSentiment,
				})
			}
			return out
		}),
	})
}

func (s *Service) Feed(ctx context.Context, p FeedParams) (Response[[]FeedItem], error) {
	return run(ctx, s, query[[]FeedItem]{
		op:     OpFeed,
		path:   "feed",
		params: &p,
		mock:   func() []FeedItem { return s.mock().Feed(*p.Limit) },
		transform: decode(func(raw apiFeed) []FeedItem {
			out := make([]FeedItem, 0, len(raw.Data))
			for _, item := range raw.Data {
				entry := FeedItem{
					Type:      item.Type,
					Content:   item.Content,
					Timestamp: item.Timestamp,
				}
				if entry.Content == "" {
					entry.Content = item.Description
				}
				if entry.Timestamp == "" {
					entry.Timestamp = item.CreatedAt
				}
				if item.EngagementMetrics != nil {
					entry.Engagement = item.EngagementMetrics.Total
				}
				out = append(out, entry)
			}
			return out
		}),
	})
}

// Run dispatches operation with parameters decoded from a query string and
// returns the response envelope.
func (s *Service) Run(ctx context.Context, operation string, q url.Values) (any, error) {
	switch operation {
	case OpMentions:
		p, err := ParseMentionsParams(q)
		if err != nil {
			return nil, err
		}
		return s.Mentions(ctx, p)
	case OpSentiment:
		p, err := ParseSentimentParams(q)
		if err != nil {
			return nil, err
		}
		return s.Sentiment(ctx, p)
	case OpGeo:
		p, err := ParseGeoParams(q)
		if err != nil {
			return nil, err
		}
		return s.Geo(ctx, p)
	case OpInfluencers:
		p, err := ParseInfluencersParams(q)
		if err != nil {
			return nil, err
		}
		return s.Influencers(ctx, p)
	case OpShareOfVoice:
		p, err := ParseShareOfVoiceParams(q)
		if err != nil {
			return nil, err
		}
		return s.ShareOfVoice(ctx, p)
	case OpTrending:
		p, err := ParseTrendingParams(q)
		if err != nil {
			return nil, err
		}
		return s.Trending(ctx, p)
	case OpFeed:
		p, err := ParseFeedParams(q)
		if err != nil {
			return nil, err
		}
		return s.Feed(ctx, p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
}

// MapSentiment normalizes a vendor sentiment label.
func MapSentiment(label string) string {
	normalized := strings.ToLower(label)
	switch {
	case strings.Contains(normalized, SentimentPositive):
		return SentimentPositive
	case strings.Contains(normalized, SentimentNegative):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func (s *Service) mock() *Mock {
	s.mockOnce.Do(func() {
		if s.Mock == nil {
			s.Mock = NewMock(uint64(time.Now().UnixNano()))
		}
	})
	return s.Mock
}
