package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blogflow/internal/concurrent"
	"blogflow/internal/domain"
	"blogflow/pkg/logger"
	"blogflow/pkg/metrics"
)

// JobSubmitter accepts background jobs without blocking.
type JobSubmitter interface {
	Submit(job concurrent.Job) bool
}

type ArticleService struct {
	store  domain.Store
	jobs   JobSubmitter
	audit  *AuditLogService
	logger logger.Logger
}

func NewArticleService(store domain.Store, jobs JobSubmitter, audit *AuditLogService, logger logger.Logger) domain.ArticleService {
	return &ArticleService{
		store:  store,
		jobs:   jobs,
		audit:  audit,
		logger: logger,
	}
}

func (s *ArticleService) Create(ctx context.Context, authorID int64, in domain.CreateArticleInput) (*domain.Article, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, domain.NewError(domain.KindArticleTitleContentEmpty)
	}

	article := &domain.Article{
		AuthorID: authorID,
		Title:    in.Title,
		Content:  in.Content,
		Summary:  domain.DeriveSummary(in.Content),
		Tags:     in.Tags,
		Category: in.Category,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		author, err := tx.Users().FindByID(ctx, authorID)
		if err != nil {
			return err
		}
		if author == nil {
			return domain.NewError(domain.KindUserNotFound)
		}

		article.AuthorName = author.Name
		if article.AuthorName == "" {
			article.AuthorName = author.Username
		}

		if err := tx.Articles().Create(ctx, article); err != nil {
			return err
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeArticle, article.ID, authorID, domain.ActionTypeCreate,
			fmt.Sprintf("article created: %s", article.Title))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return article, nil
}

// Get returns the article with the view this read adds already counted.
// The stored counter is bumped in the background.
func (s *ArticleService) Get(ctx context.Context, id int64) (*domain.Article, error) {
	article, err := s.store.Articles().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.NewError(domain.KindArticleNotFound)
	}

	s.recordView(ctx, id)
	article.ViewCount++

	return article, nil
}

func (s *ArticleService) recordView(ctx context.Context, id int64) {
	metrics.RecordArticleView()

	increment := func(ctx context.Context) error {
		return s.store.Articles().IncrementViewCount(ctx, id)
	}

	if s.jobs != nil && s.jobs.Submit(concurrent.Job{Name: fmt.Sprintf("article_view:%d", id), Run: increment}) {
		return
	}

	if err := increment(context.WithoutCancel(ctx)); err != nil {
		s.logger.ErrorContext(ctx, "View count could not be recorded", map[string]interface{}{"article_id": id, "error": err.Error()})
	}
}

func (s *ArticleService) List(ctx context.Context, page, pageSize int) (*domain.ArticlePage, error) {
	page, pageSize = domain.NormalizePage(page, pageSize)

	total, err := s.store.Articles().Count(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.KindArticleListError, err)
	}

	result := &domain.ArticlePage{
		Items:    []*domain.Article{},
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	offset, ok := domain.PageOffset(page, pageSize)
	if !ok || offset >= total {
		return result, nil
	}

	items, err := s.store.Articles().List(ctx, int(offset), pageSize)
	if err != nil {
		return nil, domain.WrapError(domain.KindArticleListError, err)
	}
	if items != nil {
		result.Items = items
	}

	return result, nil
}

func (s *ArticleService) Update(ctx context.Context, id, callerID int64, patch domain.ArticlePatch) (*domain.Article, error) {
	var article *domain.Article
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		article, err = authorizeMutation(ctx, tx, id, callerID)
		if err != nil {
			return err
		}

		if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
			article.Title = *patch.Title
		}
		if patch.Content != nil && strings.TrimSpace(*patch.Content) != "" {
			article.Content = *patch.Content
			article.Summary = domain.DeriveSummary(article.Content)
		}
		if patch.Tags != nil {
			article.Tags = *patch.Tags
		}
		if patch.Category != nil {
			article.Category = *patch.Category
		}
		article.UpdatedAt = time.Now().UTC()

		if err := tx.Articles().Update(ctx, article); err != nil {
			return err
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeArticle, article.ID, callerID, domain.ActionTypeUpdate,
			fmt.Sprintf("article updated: %s", article.Title))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return article, nil
}

func (s *ArticleService) Delete(ctx context.Context, id, callerID int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		article, err := authorizeMutation(ctx, tx, id, callerID)
		if err != nil {
			return err
		}

		if err := tx.Articles().Delete(ctx, article.ID); err != nil {
			return err
		}

		s.audit.LogAction(ctx, tx.AuditLogs(), domain.EntityTypeArticle, article.ID, callerID, domain.ActionTypeDelete,
			fmt.Sprintf("article deleted: %s", article.Title))
		return nil
	})
}

// authorizeMutation loads the article and checks that callerID wrote it.
func authorizeMutation(ctx context.Context, store domain.Store, articleID, callerID int64) (*domain.Article, error) {
	article, err := store.Articles().FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.NewError(domain.KindArticleNotFound)
	}
	if article.AuthorID != callerID {
		return nil, domain.NewError(domain.KindArticleAccessDenied)
	}
	return article, nil
}
