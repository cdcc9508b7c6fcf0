package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warroom/warroom/internal/core"
)

const defaultMentionLimit = 50

// CreateMention inserts a mention and returns it with its assigned ID.
func (s *Store) CreateMention(ctx context.Context, mention core.Mention) (*core.Mention, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(mention.Platform) == "" {
		return nil, errors.New("platform is required")
	}
	if strings.TrimSpace(mention.Content) == "" {
		return nil, errors.New("content is required")
	}

	now := time.Now().UTC()
	if mention.MentionedAt.IsZero() {
		mention.MentionedAt = now
	}
	mention.CreatedAt = now

	result, err := s.DB.ExecContext(ctx, insertMentionSQL("INSERT"), mentionArgs(mention)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create mention: %w", core.ErrDuplicate)
		}
		return nil, fmt.Errorf("create mention: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create mention: %w", err)
	}
	mention.ID = id
	mention.MentionedAt = time.Unix(mention.MentionedAt.Unix(), 0).UTC()
	mention.CreatedAt = time.Unix(mention.CreatedAt.Unix(), 0).UTC()
	return &mention, nil
}

// ImportMentions inserts mentions in one transaction, skipping any whose
// external ID was already stored for the campaign. It returns the number of
// new rows.
func (s *Store) ImportMentions(ctx context.Context, mentions []core.Mention) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(mentions) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import mentions: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertMentionSQL("INSERT OR IGNORE"))
	if err != nil {
		return 0, fmt.Errorf("import mentions: %w", err)
	}
	defer stmt.Close() // nolint:errcheck // best-effort cleanup

	now := time.Now().UTC()
	inserted := 0
	for _, mention := range mentions {
		if strings.TrimSpace(mention.Platform) == "" || strings.TrimSpace(mention.Content) == "" {
			continue
		}
		if mention.MentionedAt.IsZero() {
			mention.MentionedAt = now
		}
		mention.CreatedAt = now

		result, err := stmt.ExecContext(ctx, mentionArgs(mention)...)
		if err != nil {
			return 0, fmt.Errorf("import mention %q: %w", mention.ExternalID, err)
		}
		if affected, err := result.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import mentions: %w", err)
	}
	return inserted, nil
}

func insertMentionSQL(verb string) string {
	return verb + ` INTO mentions (
			campaign_id, external_id, platform, content, author, url,
			sentiment, reach, engagement, mentioned_at, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
}

func mentionArgs(mention core.Mention) []any {
	var sentiment sql.NullFloat64
	if mention.Sentiment != nil {
		sentiment = sql.NullFloat64{Float64: *mention.Sentiment, Valid: true}
	}
	return []any{
		mention.CampaignID, nullString(mention.ExternalID), mention.Platform, mention.Content,
		nullString(mention.Author), nullString(mention.URL), sentiment, mention.Reach, mention.Engagement,
		mention.MentionedAt.UTC().Unix(), mention.CreatedAt.UTC().Unix(),
	}
}

// ListMentions returns mentions newest first.
func (s *Store) ListMentions(ctx context.Context, filter core.MentionFilter) ([]core.Mention, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	conditions := []string{}
	args := []any{}
	if filter.CampaignID != nil {
		conditions = append(conditions, "campaign_id = ?")
		args = append(args, *filter.CampaignID)
	}
	if platform := strings.TrimSpace(filter.Platform); platform != "" {
		conditions = append(conditions, "platform = ?")
		args = append(args, platform)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMentionLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, campaign_id, external_id, platform, content, author, url,
			sentiment, reach, engagement, mentioned_at, created_at
		FROM mentions
		%s
		ORDER BY mentioned_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list mentions: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	mentions := []core.Mention{}
	for rows.Next() {
		var (
			mention     core.Mention
			externalID  sql.NullString
			author      sql.NullString
			url         sql.NullString
			sentiment   sql.NullFloat64
			mentionedAt int64
			createdAt   int64
		)
		if err := rows.Scan(&mention.ID, &mention.CampaignID, &externalID, &mention.Platform, &mention.Content, &author, &url,
			&sentiment, &mention.Reach, &mention.Engagement, &mentionedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan mentions: %w", err)
		}
		mention.ExternalID = externalID.String
		mention.Author = author.String
		mention.URL = url.String
		if sentiment.Valid {
			value := sentiment.Float64
			mention.Sentiment = &value
		}
		mention.MentionedAt = time.Unix(mentionedAt, 0).UTC()
		mention.CreatedAt = time.Unix(createdAt, 0).UTC()
		mentions = append(mentions, mention)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mentions: %w", err)
	}
	return mentions, nil
}

// CountMentionsBetween counts mentions with from <= mentioned_at < to.
func (s *Store) CountMentionsBetween(ctx context.Context, from, to time.Time) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var count int
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM mentions
		WHERE mentioned_at >= ? AND mentioned_at < ?
	`, from.UTC().Unix(), to.UTC().Unix())
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count mentions: %w", err)
	}
	return count, nil
}

// AverageSentimentBetween averages sentiment for mentions in [from, to),
// returning 0 when none have a score.
func (s *Store) AverageSentimentBetween(ctx context.Context, from, to time.Time) (float64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var avg float64
	row := s.DB.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(sentiment), 0)
		FROM mentions
		WHERE mentioned_at >= ? AND mentioned_at < ?
	`, from.UTC().Unix(), to.UTC().Unix())
	if err := row.Scan(&avg); err != nil {
		return 0, fmt.Errorf("average sentiment: %w", err)
	}
	return avg, nil
}

// CountKeywordMentionsSince counts mentions containing keyword, case-insensitively.
func (s *Store) CountKeywordMentionsSince(ctx context.Context, keyword string, since time.Time) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return 0, errors.New("keyword is required")
	}

	var count int
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM mentions
		WHERE LOWER(content) LIKE ? AND mentioned_at >= ?
	`, "%"+strings.ToLower(keyword)+"%", since.UTC().Unix())
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count keyword mentions: %w", err)
	}
	return count, nil
}

// SumReachBetween totals reach for mentions in [from, to).
func (s *Store) SumReachBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var reach int64
	row := s.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(reach), 0)
		FROM mentions
		WHERE mentioned_at >= ? AND mentioned_at < ?
	`, from.UTC().Unix(), to.UTC().Unix())
	if err := row.Scan(&reach); err != nil {
		return 0, fmt.Errorf("sum reach: %w", err)
	}
	return reach, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
