package mentionlytics

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidParams marks parameter validation failures.
var ErrInvalidParams = errors.New("invalid parameters")

// ValidationError lists every rejected parameter.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrInvalidParams.Error()
	}
	return "Invalid parameters: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParams
}

type MentionsParams struct {
	Keyword   string `query:"keyword" validate:"omitempty,min=1,max=100"`
	Platform  string `query:"platform" validate:"omitempty,oneof=twitter facebook instagram linkedin youtube reddit news blogs"`
	Limit     *int   `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset    *int   `query:"offset" validate:"omitempty,min=0"`
	DateFrom  string `query:"date_from" validate:"omitempty,isodate"`
	DateTo    string `query:"date_to" validate:"omitempty,isodate"`
	Sentiment string `query:"sentiment" validate:"omitempty,oneof=positive negative neutral"`
	Country   string `query:"country" validate:"omitempty,len=2"`
}

func (p *MentionsParams) applyDefaults() {
	p.Limit = defaultInt(p.Limit, 20)
	p.Offset = defaultInt(p.Offset, 0)
}

func (p MentionsParams) values() map[string]any {
	return compact(map[string]any{
		"keyword":   p.Keyword,
		"platform":  p.Platform,
		"limit":     deref(p.Limit),
		"offset":    deref(p.Offset),
		"date_from": p.DateFrom,
		"date_to":   p.DateTo,
		"sentiment": p.Sentiment,
		"country":   p.Country,
	})
}

func (p MentionsParams) upstream() map[string]any {
	return compact(map[string]any{
		"q":         p.Keyword,
		"source":    p.Platform,
		"limit":     deref(p.Limit),
		"offset":    deref(p.Offset),
		"from":      p.DateFrom,
		"to":        p.DateTo,
		"sentiment": p.Sentiment,
		"country":   p.Country,
	})
}

type SentimentParams struct {
	Keyword  string `query:"keyword" validate:"omitempty,min=1,max=100"`
	Platform string `query:"platform" validate:"omitempty,oneof=twitter facebook instagram linkedin youtube reddit news blogs"`
	DateFrom string `query:"date_from" validate:"omitempty,isodate"`
	DateTo   string `query:"date_to" validate:"omitempty,isodate"`
	Country  string `query:"country" validate:"omitempty,len=2"`
}

func (p *SentimentParams) applyDefaults() {}

func (p SentimentParams) values() map[string]any {
	return compact(map[string]any{
		"keyword":   p.Keyword,
		"platform":  p.Platform,
		"date_from": p.DateFrom,
		"date_to":   p.DateTo,
		"country":   p.Country,
	})
}

func (p SentimentParams) upstream() map[string]any {
	return compact(map[string]any{
		"q":       p.Keyword,
		"source":  p.Platform,
		"from":    p.DateFrom,
		"to":      p.DateTo,
		"country": p.Country,
	})
}

type GeoParams struct {
	Keyword  string `query:"keyword" validate:"omitempty,min=1,max=100"`
	Platform string `query:"platform" validate:"omitempty,oneof=twitter facebook instagram linkedin youtube reddit news blogs"`
	DateFrom string `query:"date_from" validate:"omitempty,isodate"`
	DateTo   string `query:"date_to" validate:"omitempty,isodate"`
	Limit    *int   `query:"limit" validate:"omitempty,min=1,max=50"`
}

func (p *GeoParams) applyDefaults() {
	p.Limit = defaultInt(p.Limit, 10)
}

func (p GeoParams) values() map[string]any {
	return compact(map[string]any{
		"keyword":   p.Keyword,
		"platform":  p.Platform,
		"date_from": p.DateFrom,
		"date_to":   p.DateTo,
		"limit":     deref(p.Limit),
	})
}

func (p GeoParams) upstream() map[string]any {
	return compact(map[string]any{
		"q":      p.Keyword,
		"source": p.Platform,
		"from":   p.DateFrom,
		"to":     p.DateTo,
		"limit":  deref(p.Limit),
	})
}

type InfluencersParams struct {
	Keyword      string `query:"keyword" validate:"omitempty,min=1,max=100"`
	Platform     string `query:"platform" validate:"omitempty,oneof=twitter facebook instagram linkedin youtube"`
	MinFollowers *int   `query:"min_followers" validate:"omitempty,min=0"`
	Limit        *int   `query:"limit" validate:"omitempty,min=1,max=50"`
	DateFrom     string `query:"date_from" validate:"omitempty,isodate"`
	DateTo       string `query:"date_to" validate:"omitempty,isodate"`
}

func (p *InfluencersParams) applyDefaults() {
	p.MinFollowers = defaultInt(p.MinFollowers, 1000)
	p.Limit = defaultInt(p.Limit, 10)
}

func (p InfluencersParams) values() map[string]any {
	return compact(map[string]any{
		"keyword":       p.Keyword,
		"platform":      p.Platform,
		"min_followers": deref(p.MinFollowers),
		"limit":         deref(p.Limit),
		"date_from":     p.DateFrom,
		"date_to":       p.DateTo,
	})
}

func (p InfluencersParams) upstream() map[string]any {
	return compact(map[string]any{
		"q":             p.Keyword,
		"source":        p.Platform,
		"min_followers": deref(p.MinFollowers),
		"limit":         deref(p.Limit),
		"from":          p.DateFrom,
		"to":            p.DateTo,
	})
}

// DefaultBrand is analysed when no brands are requested.
const DefaultBrand = "YourBrand"

type ShareOfVoiceParams struct {
	Brands   []string `query:"brands" validate:"min=1,max=10,dive,min=1,max=50"`
	Platform string   `query:"platform" validate:"omitempty,oneof=twitter facebook instagram linkedin youtube reddit news blogs"`
	DateFrom string   `query:"date_from" validate:"omitempty,isodate"`
	DateTo   string   `query:"date_to" validate:"omitempty,isodate"`
	Country  string   `query:"country" validate:"omitempty,len=2"`
}

func (p *ShareOfVoiceParams) applyDefaults() {
	if p.Brands == nil {
		p.Brands = []string{DefaultBrand}
	}
}

func (p ShareOfVoiceParams) values() map[string]any {
	return compact(map[string]any{
		"brands":    p.Brands,
		"platform":  p.Platform,
		"date_from": p.DateFrom,
		"date_to":   p.DateTo,
		"country":   p.Country,
	})
}

func (p ShareOfVoiceParams) upstream() map[string]any {
	return compact(map[string]any{
		"brands":  strings.Join(p.Brands, ","),
		"source":  p.Platform,
		"from":    p.DateFrom,
		"to":      p.DateTo,
		"country": p.Country,
	})
}

type TrendingParams struct {
	Keyword     string `query:"keyword" validate:"omitempty,min=1,max=100"`
	Platform    string `query:"platform" validate:"omitempty,oneof=twitter facebook instagram linkedin youtube reddit news blogs"`
	Limit       *int   `query:"limit" validate:"omitempty,min=1,max=20"`
	Period      string `query:"period" validate:"omitempty,oneof=1h 6h 24h 7d"`
	MinMentions *int   `query:"min_mentions" validate:"omitempty,min=1"`
}

func (p *TrendingParams) applyDefaults() {
	p.Limit = defaultInt(p.Limit, 10)
	p.MinMentions = defaultInt(p.MinMentions, 5)
	if p.Period == "" {
		p.Period = "24h"
	}
}

func (p TrendingParams) values() map[string]any {
	return compact(map[string]any{
		"keyword":      p.Keyword,
		"platform":     p.Platform,
		"limit":        deref(p.Limit),
		"period":       p.Period,
		"min_mentions": deref(p.MinMentions),
	})
}

func (p TrendingParams) upstream() map[string]any {
	return compact(map[string]any{
		"q":            p.Keyword,
		"source":       p.Platform,
		"limit":        deref(p.Limit),
		"period":       p.Period,
		"min_mentions": deref(p.MinMentions),
	})
}

type FeedParams struct {
	Keyword  string   `query:"keyword" validate:"omitempty,min=1,max=100"`
	Types    []string `query:"types" validate:"min=1,dive,oneof=mention trend influencer alert"`
	Limit    *int     `query:"limit" validate:"omitempty,min=1,max=50"`
	DateFrom string   `query:"date_from" validate:"omitempty,isodate"`
	DateTo   string   `query:"date_to" validate:"omitempty,isodate"`
}

func (p *FeedParams) applyDefaults() {
	if p.Types == nil {
		p.Types = []string{"mention"}
	}
	p.Limit = defaultInt(p.Limit, 20)
}

func (p FeedParams) values() map[string]any {
	return compact(map[string]any{
		"keyword":   p.Keyword,
		"types":     p.Types,
		"limit":     deref(p.Limit),
		"date_from": p.DateFrom,
		"date_to":   p.DateTo,
	})
}

func (p FeedParams) upstream() map[string]any {
	return compact(map[string]any{
		"q":     p.Keyword,
		"types": strings.Join(p.Types, ","),
		"limit": deref(p.Limit),
		"from":  p.DateFrom,
		"to":    p.DateTo,
	})
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("query"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			return isISODate(fl.Field().String())
		})
	})
	return validate
}

func isISODate(value string) bool {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// validateParams checks p against its struct tags.
func validateParams(p any) error {
	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String
	isSlice := fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "isodate":
		return fmt.Sprintf("%q must be in ISO 8601 date format", field)
	case "len":
		return fmt.Sprintf("%q length must be %s characters long", field, fe.Param())
	case "min":
		switch {
		case isString:
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		case isSlice:
			return fmt.Sprintf("%q must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		switch {
		case isString:
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		case isSlice:
			return fmt.Sprintf("%q must contain less than or equal to %s items", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%q failed %s validation", field, fe.Tag())
	}
}

// Query decoding.

// ParseMentionsParams reads mentions parameters from a query string.
func ParseMentionsParams(q url.Values) (MentionsParams, error) {
	var d decoder
	p := MentionsParams{
		Keyword:   d.str(q, "keyword"),
		Platform:  d.str(q, "platform"),
		Limit:     d.integer(q, "limit"),
		Offset:    d.integer(q, "offset"),
		DateFrom:  d.str(q, "date_from"),
		DateTo:    d.str(q, "date_to"),
		Sentiment: d.str(q, "sentiment"),
		Country:   d.str(q, "country"),
	}
	return p, d.err()
}

func ParseSentimentParams(q url.Values) (SentimentParams, error) {
	var d decoder
	p := SentimentParams{
		Keyword:  d.str(q, "keyword"),
		Platform: d.str(q, "platform"),
		DateFrom: d.str(q, "date_from"),
		DateTo:   d.str(q, "date_to"),
		Country:  d.str(q, "country"),
	}
	return p, d.err()
}

func ParseGeoParams(q url.Values) (GeoParams, error) {
	var d decoder
	p := GeoParams{
		Keyword:  d.str(q, "keyword"),
		Platform: d.str(q, "platform"),
		DateFrom: d.str(q, "date_from"),
		DateTo:   d.str(q, "date_to"),
		Limit:    d.integer(q, "limit"),
	}
	return p, d.err()
}

func ParseInfluencersParams(q url.Values) (InfluencersParams, error) {
	var d decoder
	p := InfluencersParams{
		Keyword:      d.str(q, "keyword"),
		Platform:     d.str(q, "platform"),
		MinFollowers: d.integer(q, "min_followers"),
		Limit:        d.integer(q, "limit"),
		DateFrom:     d.str(q, "date_from"),
		DateTo:       d.str(q, "date_to"),
	}
	return p, d.err()
}

func ParseShareOfVoiceParams(q url.Values) (ShareOfVoiceParams, error) {
	var d decoder
	p := ShareOfVoiceParams{
		Brands:   d.csv(q, "brands"),
		Platform: d.str(q, "platform"),
		DateFrom: d.str(q, "date_from"),
		DateTo:   d.str(q, "date_to"),
		Country:  d.str(q, "country"),
	}
	return p, d.err()
}

func ParseTrendingParams(q url.Values) (TrendingParams, error) {
	var d decoder
	p := TrendingParams{
		Keyword:     d.str(q, "keyword"),
		Platform:    d.str(q, "platform"),
		Limit:       d.integer(q, "limit"),
		Period:      d.str(q, "period"),
		MinMentions: d.integer(q, "min_mentions"),
	}
	return p, d.err()
}

func ParseFeedParams(q url.Values) (FeedParams, error) {
	var d decoder
	p := FeedParams{
		Keyword:  d.str(q, "keyword"),
		Types:    d.csv(q, "types"),
		Limit:    d.integer(q, "limit"),
		DateFrom: d.str(q, "date_from"),
		DateTo:   d.str(q, "date_to"),
	}
	return p, d.err()
}

type decoder struct {
	problems []string
}

func (d *decoder) str(q url.Values, key string) string {
	return strings.TrimSpace(q.Get(key))
}

func (d *decoder) integer(q url.Values, key string) *int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		d.problems = append(d.problems, fmt.Sprintf("%q must be an integer", key))
		return nil
	}
	return &n
}

func (d *decoder) csv(q url.Values, key string) []string {
	raw := q.Get(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func (d *decoder) err() error {
	if len(d.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: d.problems}
}

func defaultInt(v *int, def int) *int {
	if v != nil {
		return v
	}
	return &def
}

func deref(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// compact drops unset parameters so they neither reach the cache key nor the
// upstream query string.
func compact(m map[string]any) map[string]any {
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			delete(m, key)
		case string:
			if v == "" {
				delete(m, key)
			}
		}
	}
	return m
}
