package domain

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	SummaryLength   = 100
	SummaryMarker   = "..."
	DefaultPage     = 1
	DefaultPageSize = 10
)

type Article struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Summary    string    `json:"summary"`
	Tags       string    `json:"tags"`
	Category   string    `json:"category"`
	ViewCount  int64     `json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateArticleInput struct {
	Title    string
	Content  string
	Tags     string
	Category string
}

// ArticlePatch carries only the fields the caller sent.
type ArticlePatch struct {
	Title    *string
	Content  *string
	Tags     *string
	Category *string
}

type ArticlePage struct {
	Items    []*Article
	Total    int64
	Page     int
	PageSize int
}

// DeriveSummary returns the first SummaryLength characters of content plus
// SummaryMarker, or content itself when it is short enough.
func DeriveSummary(content string) string {
	if utf8.RuneCountInString(content) <= SummaryLength {
		return content
	}
	return string([]rune(content)[:SummaryLength]) + SummaryMarker
}

// NormalizePage replaces non-positive paging input with the defaults.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// TagList splits the stored comma-joined tags. Empty tags yield nil.
func (a *Article) TagList() []string {
	if strings.TrimSpace(a.Tags) == "" {
		return nil
	}
	parts := strings.Split(a.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// PageOffset returns the number of rows before page. ok is false when the
// offset does not fit in an int64.
func PageOffset(page, pageSize int) (offset int64, ok bool) {
	p, size := int64(page)-1, int64(pageSize)
	if p > 0 && p > math.MaxInt64/size {
		return 0, false
	}
	return p * size, true
}

type ArticleRepository interface {
	FindByID(ctx context.Context, id int64) (*Article, error)
	Create(ctx context.Context, article *Article) error
	Update(ctx context.Context, article *Article) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset, limit int) ([]*Article, error)
	Count(ctx context.Context) (int64, error)
	IncrementViewCount(ctx context.Context, id int64) error
}

type ArticleService interface {
	Create(ctx context.Context, authorID int64, in CreateArticleInput) (*Article, error)
	Get(ctx context.Context, id int64) (*Article, error)
	List(ctx context.Context, page, pageSize int) (*ArticlePage, error)
	Update(ctx context.Context, id, callerID int64, patch ArticlePatch) (*Article, error)
	Delete(ctx context.Context, id, callerID int64) error
}
