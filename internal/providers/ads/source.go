// Package ads pulls campaign performance from advertising platforms and
// stores it as daily performance metrics.
package ads

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/warroom/warroom/internal/core"
	"github.com/warroom/warroom/internal/core/apiclient"
)

// Platform names.
const (
	PlatformMeta      = "meta"
	PlatformGoogleAds = "google_ads"
)

// Metric types written for every platform.
const (
	MetricImpressions = "impressions"
	MetricClicks      = "clicks"
	MetricSpend       = "spend"
	MetricConversions = "conversions"
)

// Source fetches daily metrics for one platform.
type Source interface {
	Platform() string
	Configured() bool
	Fetch(ctx context.Context, req SyncRequest) ([]core.PerformanceMetric, error)
}

// MetaSource reads the Meta marketing insights endpoint.
type MetaSource struct {
	Client *apiclient.Client
}

func (m *MetaSource) Platform() string { return PlatformMeta }

func (m *MetaSource) Configured() bool {
	return m != nil && m.Client.IsConfigured()
}

type metaInsights struct {
	Data []struct {
		DateStart   string `json:"date_start"`
		Impressions string `json:"impressions"`
		Clicks      string `json:"clicks"`
		Spend       string `json:"spend"`
		Conversions string `json:"conversions"`
	} `json:"data"`
}

func (m *MetaSource) Fetch(ctx context.Context, req SyncRequest) ([]core.PerformanceMetric, error) {
	timeRange, err := json.Marshal(map[string]string{"since": req.StartDate, "until": req.EndDate})
	if err != nil {
		return nil, err
	}
	endpoint := url.PathEscape(req.campaignRef()) + "/insights"
	insights, err := apiclient.Get[metaInsights](ctx, m.Client, endpoint, map[string]any{
		"fields":         "impressions,clicks,spend,conversions",
		"time_range":     string(timeRange),
		"time_increment": 1,
	}, apiclient.RequestOptions{})
	if err != nil {
		return nil, err
	}

	var out []core.PerformanceMetric
	for _, row := range insights.Data {
		values := map[string]string{
			MetricImpressions: row.Impressions,
			MetricClicks:      row.Clicks,
			MetricSpend:       row.Spend,
			MetricConversions: row.Conversions,
		}
		for _, metric := range []string{MetricImpressions, MetricClicks, MetricSpend, MetricConversions} {
			raw := strings.TrimSpace(values[metric])
			if raw == "" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parse meta %s %q: %w", metric, raw, err)
			}
			out = append(out, core.PerformanceMetric{
				CampaignID:  req.CampaignID,
				Platform:    PlatformMeta,
				MetricType:  metric,
				MetricValue: value,
				Date:        row.DateStart,
			})
		}
	}
	return out, nil
}

// GoogleAdsSource reads campaign performance for one Google Ads customer.
type GoogleAdsSource struct {
	Client     *apiclient.Client
	CustomerID string
}

func (g *GoogleAdsSource) Platform() string { return PlatformGoogleAds }

func (g *GoogleAdsSource) Configured() bool {
	return g != nil && g.Client.IsConfigured() && strings.TrimSpace(g.CustomerID) != ""
}

type googleAdsPerformance struct {
	Results []struct {
		Date    string `json:"date"`
		Metrics struct {
			Impressions int64   `json:"impressions"`
			Clicks      int64   `json:"clicks"`
			CostMicros  int64   `json:"cost_micros"`
			Conversions float64 `json:"conversions"`
		} `json:"metrics"`
	} `json:"results"`
}

func (g *GoogleAdsSource) Fetch(ctx context.Context, req SyncRequest) ([]core.PerformanceMetric, error) {
	customer := strings.ReplaceAll(strings.TrimSpace(g.CustomerID), "-", "")
	endpoint := "customers/" + url.PathEscape(customer) + "/campaignPerformance"
	perf, err := apiclient.Get[googleAdsPerformance](ctx, g.Client, endpoint, map[string]any{
		"campaign_id": req.campaignRef(),
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
	}, apiclient.RequestOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]core.PerformanceMetric, 0, len(perf.Results)*4)
	for _, row := range perf.Results {
		for metric, value := range map[string]float64{
			MetricImpressions: float64(row.Metrics.Impressions),
			MetricClicks:      float64(row.Metrics.Clicks),
			MetricSpend:       float64(row.Metrics.CostMicros) / 1e6,
			MetricConversions: row.Metrics.Conversions,
		} {
			out = append(out, core.PerformanceMetric{
				CampaignID:  req.CampaignID,
				Platform:    PlatformGoogleAds,
				MetricType:  metric,
				MetricValue: value,
				Date:        row.Date,
			})
		}
	}
	return out, nil
}
