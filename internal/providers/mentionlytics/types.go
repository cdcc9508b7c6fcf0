package mentionlytics

// Response is the envelope every social-listening operation returns.
// Success is false when Data was synthesized because the upstream call failed.
type Response[T any] struct {
	Data    T      `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

type MentionItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Platform  string `json:"platform"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Sentiment string `json:"sentiment"`
	Reach     int64  `json:"reach"`
}

type SentimentSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type GeoLocation struct {
	Location    string       `json:"location"`
	Mentions    int          `json:"mentions"`
	Sentiment   float64      `json:"sentiment"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Influencer struct {
	Name           string  `json:"name"`
	Followers      int64   `json:"followers"`
	EngagementRate float64 `json:"engagement_rate"`
	Platform       string  `json:"platform"`
	InfluenceScore float64 `json:"influence_score"`
}

type ShareOfVoice struct {
	Brand      string  `json:"brand"`
	Percentage float64 `json:"percentage"`
	Mentions   int     `json:"mentions"`
	Sentiment  float64 `json:"sentiment"`
}

type TrendingTopic struct {
	Topic      string  `json:"topic"`
	Mentions   int     `json:"mentions"`
	GrowthRate float64 `json:"growth_rate"`
	Sentiment  float64 `json:"sentiment"`
}

type FeedItem struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	Engagement int64  `json:"engagement"`
}

// Upstream payload shapes.

type apiMentions struct {
	Data []struct {
		ID     string `json:"id"`
		Text   string `json:"text"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
		PublishedAt string `json:"published_at"`
		Sentiment   struct {
			Label string `json:"label"`
		} `json:"sentiment"`
		Reach int64 `json:"reach"`
	} `json:"data"`
	Pagination struct {
		Total   int `json:"total"`
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
	} `json:"pagination"`
}

type apiSentiment struct {
	Data struct {
		Distribution SentimentSummary `json:"sentiment_distribution"`
	} `json:"data"`
}

type apiGeo struct {
	Data []struct {
		Location      string  `json:"location"`
		MentionsCount int     `json:"mentions_count"`
		AvgSentiment  float64 `json:"avg_sentiment"`
		Coordinates   *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	} `json:"data"`
}

type apiInfluencers struct {
	Data []struct {
		Name           string  `json:"name"`
		Username       string  `json:"username"`
		FollowersCount int64   `json:"followers_count"`
		EngagementRate float64 `json:"engagement_rate"`
		Platform       string  `json:"platform"`
		InfluenceScore float64 `json:"influence_score"`
		Verified       bool    `json:"verified"`
	} `json:"data"`
}

type apiShareOfVoice struct {
	Data struct {
		ShareOfVoice []struct {
			Brand         string  `json:"brand"`
			Percentage    float64 `json:"percentage"`
			MentionsCount int     `json:"mentions_count"`
			AvgSentiment  float64 `json:"avg_sentiment"`
			TotalReach    int64   `json:"total_reach"`
		} `json:"share_of_voice"`
		TotalMentions int `json:"total_mentions"`
	} `json:"data"`
}

type apiTrending struct {
	Data []struct {
		Topic         string  `json:"topic"`
		Keyword       string  `json:"keyword"`
		MentionsCount int     `json:"mentions_count"`
		GrowthRate    float64 `json:"growth_rate"`
		AvgSentiment  float64 `json:"avg_sentiment"`
		Trend         string  `json:"trend"`
	} `json:"data"`
}

type apiFeed struct {
	Data []struct {
		ID                string `json:"id"`
		Type              string `json:"type"`
		Content           string `json:"content"`
		Description       string `json:"description"`
		Timestamp         string `json:"timestamp"`
		CreatedAt         string `json:"created_at"`
		EngagementMetrics *struct {
			Likes    int64 `json:"likes"`
			Shares   int64 `json:"shares"`
			Comments int64 `json:"comments"`
			Total    int64 `json:"total"`
		} `json:"engagement_metrics"`
	} `json:"data"`
}
