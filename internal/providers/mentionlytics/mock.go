package mentionlytics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// MockMentionPrefix starts the ID of every placeholder mention.
const MockMentionPrefix = "mock_mention_"

// Mock builds placeholder payloads with a stable shape and random values.
// It serves callers whenever real data cannot be fetched.
type Mock struct {
	Clock func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMock returns a generator seeded from seed.
func NewMock(seed uint64) *Mock {
	return &Mock{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

var (
	mockMentionPlatforms    = []string{"twitter", "facebook", "instagram", "linkedin", "reddit"}
	mockInfluencerPlatforms = []string{"twitter", "facebook", "instagram", "linkedin", "youtube"}
	mockSentiments          = []string{SentimentPositive, SentimentNegative, SentimentNeutral}
	mockAuthors             = []string{"TechEnthusiast", "MarketingPro", "BrandFan", "CriticalUser", "InfluencerX"}
	mockInfluencerNames     = []string{
		"TechGuru123", "DigitalMarketer", "BrandAdvocate", "IndustryExpert",
		"SocialInfluencer", "ContentCreator", "ThoughtLeader", "TrendSetter",
	}
	mockTopics = []string{
		"artificial intelligence", "sustainability", "remote work", "digital transformation",
		"customer experience", "innovation", "marketing automation", "social media",
		"brand awareness", "product launch", "user experience", "data analytics",
	}
	mockFeedTypes    = []string{"mention", "trend", "influencer", "alert"}
	mockFeedContents = []string{
		"New mention detected with high engagement",
		"Trending topic gaining momentum",
		"Influencer shared your content",
		"Spike in negative sentiment detected",
		"Viral content opportunity identified",
		"Competitor activity increased",
		"Brand mention from verified account",
	}
	mockLocations = []struct {
		name     string
		lat, lng float64
	}{
		{"United States", 39.8283, -98.5795},
		{"United Kingdom", 55.3781, -3.4360},
		{"Germany", 51.1657, 10.4515},
		{"France", 46.2276, 2.2137},
		{"Canada", 56.1304, -106.3468},
		{"Australia", -25.2744, 133.7751},
		{"Japan", 36.2048, 138.2529},
		{"Brazil", -14.2350, -51.9253},
	}
)

func (m *Mock) Mentions(count int) []MentionItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]MentionItem, count)
	for i := range out {
		out[i] = MentionItem{
			ID:        fmt.Sprintf("%s%d", MockMentionPrefix, i+1),
			Text:      fmt.Sprintf("This is a mock mention about the brand or product. It contains sample content for testing purposes. Mention %d", i+1),
			Platform:  m.pick(mockMentionPlatforms),
			Author:    m.pick(mockAuthors),
			Timestamp: now.Add(-m.within(7 * 24 * time.Hour)).Format(time.RFC3339),
			Sentiment: m.pick(mockSentiments),
			Reach:     int64(m.rnd.IntN(10000) + 100),
		}
	}
	return out
}

func (m *Mock) Sentiment() SentimentSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	positive := m.rnd.IntN(60) + 20
	negative := m.rnd.IntN(30) + 5
	neutral := m.rnd.IntN(40) + 10
	return SentimentSummary{
		Positive: positive,
		Negative: negative,
		Neutral:  neutral,
		Total:    positive + negative + neutral,
	}
}

// Geo returns at most one entry per known location.
func (m *Mock) Geo(count int) []GeoLocation {
	m.mu.Lock()
	defer m.mu.Unlock()

	count = min(count, len(mockLocations))
	out := make([]GeoLocation, count)
	for i := range out {
		loc := mockLocations[i]
		out[i] = GeoLocation{
			Location:    loc.name,
			Mentions:    m.rnd.IntN(500) + 10,
			Sentiment:   m.score(),
			Coordinates: &Coordinates{Lat: loc.lat, Lng: loc.lng},
		}
	}
	return out
}

func (m *Mock) Influencers(count int) []Influencer {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Influencer, count)
	for i := range out {
		name := mockInfluencerNames[i%len(mockInfluencerNames)]
		if i > len(mockInfluencerNames)-1 {
			name = fmt.Sprintf("%s%d", name, i+1)
		}
		out[i] = Influencer{
			Name:           name,
			Followers:      int64(m.rnd.IntN(100000) + 5000),
			EngagementRate: m.rnd.Float64()*10 + 1,
			Platform:       m.pick(mockInfluencerPlatforms),
			InfluenceScore: float64(m.rnd.IntN(100) + 1),
		}
	}
	return out
}

// ShareOfVoice splits 100% across brands; the last brand takes the remainder.
func (m *Mock) ShareOfVoice(brands []string) []ShareOfVoice {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.rnd.IntN(1000) + 500
	remaining := 100
	out := make([]ShareOfVoice, len(brands))
	for i, brand := range brands {
		percentage := remaining
		if i < len(brands)-1 {
			share := remaining / (len(brands) - i)
			percentage = 1
			if share > 0 {
				percentage = m.rnd.IntN(share) + 1
			}
		}
		remaining -= percentage
		out[i] = ShareOfVoice{
			Brand:      brand,
			Percentage: float64(percentage),
			Mentions:   int(math.Floor(float64(percentage) / 100 * float64(total))),
			Sentiment:  m.score(),
		}
	}
	return out
}

func (m *Mock) Trending(count int) []TrendingTopic {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TrendingTopic, count)
	for i := range out {
		out[i] = TrendingTopic{
			Topic:      mockTopics[i%len(mockTopics)],
			Mentions:   m.rnd.IntN(200) + 20,
			GrowthRate: m.rnd.Float64()*100 - 20,
			Sentiment:  m.score(),
		}
	}
	return out
}

func (m *Mock) Feed(count int) []FeedItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]FeedItem, count)
	for i := range out {
		out[i] = FeedItem{
			Type:       m.pick(mockFeedTypes),
			Content:    m.pick(mockFeedContents),
			Timestamp:  now.Add(-m.within(24 * time.Hour)).Format(time.RFC3339),
			Engagement: int64(m.rnd.IntN(1000) + 10),
		}
	}
	return out
}

func (m *Mock) pick(values []string) string {
	return values[m.rnd.IntN(len(values))]
}

// score returns a sentiment score in [-1, 1).
func (m *Mock) score() float64 {
	return m.rnd.Float64()*2 - 1
}

func (m *Mock) within(d time.Duration) time.Duration {
	return time.Duration(m.rnd.Int64N(int64(d)))
}

func (m *Mock) now() time.Time {
	if m.Clock != nil {
		return m.Clock().UTC()
	}
	return time.Now().UTC()
}
