// Package memory is an in-process domain.Store used for local runs and tests.
// All repositories share one lock; a transaction holds it for its whole
// duration and restores a snapshot when it fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blogflow/internal/domain"
)

type edge struct {
	follower int64
	followed int64
}

type state struct {
	users     map[int64]*domain.User
	articles  map[int64]*domain.Article
	follows   map[edge]*domain.Follow
	auditLogs []*domain.AuditLog

	nextUserID    int64
	nextArticleID int64
	nextFollowID  int64
	nextAuditID   int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]*domain.User),
		articles: make(map[int64]*domain.Article),
		follows:  make(map[edge]*domain.Follow),
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = make(map[int64]*domain.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	c.articles = make(map[int64]*domain.Article, len(s.articles))
	for k, v := range s.articles {
		a := *v
		c.articles[k] = &a
	}
	c.follows = make(map[edge]*domain.Follow, len(s.follows))
	for k, v := range s.follows {
		f := *v
		c.follows[k] = &f
	}
	c.auditLogs = append([]*domain.AuditLog(nil), s.auditLogs...)
	return &c
}

type Store struct {
	mu     *sync.Mutex
	st     *state
	locked bool
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func (s *Store) Users() domain.UserRepository         { return &userRepo{s} }
func (s *Store) Articles() domain.ArticleRepository   { return &articleRepo{s} }
func (s *Store) Follows() domain.FollowRepository     { return &followRepo{s} }
func (s *Store) AuditLogs() domain.AuditLogRepository { return &auditLogRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) (err error) {
	if s.locked {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.st = *snapshot
			panic(p)
		}
		if err != nil {
			*s.st = *snapshot
		}
	}()

	return fn(ctx, &Store{mu: s.mu, st: s.st, locked: true})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// with runs fn under the store lock unless the caller already holds it.
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.locked {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.st)
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

type userRepo struct{ s *Store }

func (r *userRepo) FindByID(ctx context.Context, id int64) (user *domain.User, err error) {
	err = r.s.with(ctx, func(st *state) error {
		if u, ok := st.users[id]; ok {
			user = copyUser(u)
		}
		return nil
	})
	return user, err
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (user *domain.User, err error) {
	err = r.s.with(ctx, func(st *state) error {
		if u := st.userByName(username); u != nil {
			user = copyUser(u)
		}
		return nil
	})
	return user, err
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (exists bool, err error) {
	err = r.s.with(ctx, func(st *state) error {
		exists = st.userByName(username) != nil
		return nil
	})
	return exists, err
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return r.s.with(ctx, func(st *state) error {
		if st.userByName(user.Username) != nil {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrDuplicate)
		}
		st.nextUserID++
		now := time.Now().UTC()
		user.ID = st.nextUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = copyUser(user)
		return nil
	})
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return nil
		}
		if other := st.userByName(user.Username); other != nil && other.ID != user.ID {
			return fmt.Errorf("username %q: %w", user.Username, domain.ErrDuplicate)
		}
		user.UpdatedAt = time.Now().UTC()
		st.users[user.ID] = copyUser(user)
		return nil
	})
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.s.with(ctx, func(st *state) error {
		if u, ok := st.users[id]; ok {
			t := at.UTC()
			u.LastLoginAt = &t
		}
		return nil
	})
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return r.s.with(ctx, func(st *state) error {
		delete(st.users, id)
		for k := range st.follows {
			if k.follower == id || k.followed == id {
				delete(st.follows, k)
			}
		}
		for aid, a := range st.articles {
			if a.AuthorID == id {
				delete(st.articles, aid)
			}
		}
		return nil
	})
}

func (st *state) userByName(username string) *domain.User {
	for _, u := range st.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

type articleRepo struct{ s *Store }

func (r *articleRepo) FindByID(ctx context.Context, id int64) (article *domain.Article, err error) {
	err = r.s.with(ctx, func(st *state) error {
		if a, ok := st.articles[id]; ok {
			c := *a
			article = &c
		}
		return nil
	})
	return article, err
}

func (r *articleRepo) Create(ctx context.Context, article *domain.Article) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.users[article.AuthorID]; !ok {
			return fmt.Errorf("author %d does not exist", article.AuthorID)
		}
		st.nextArticleID++
		now := time.Now().UTC()
		article.ID = st.nextArticleID
		article.CreatedAt = now
		article.UpdatedAt = now
		c := *article
		st.articles[article.ID] = &c
		return nil
	})
}

func (r *articleRepo) Update(ctx context.Context, article *domain.Article) error {
	return r.s.with(ctx, func(st *state) error {
		cur, ok := st.articles[article.ID]
		if !ok {
			return nil
		}
		cur.Title = article.Title
		cur.Content = article.Content
		cur.Summary = article.Summary
		cur.Tags = article.Tags
		cur.Category = article.Category
		cur.UpdatedAt = article.UpdatedAt.UTC()
		return nil
	})
}

func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	return r.s.with(ctx, func(st *state) error {
		delete(st.articles, id)
		return nil
	})
}

func (r *articleRepo) List(ctx context.Context, offset, limit int) (articles []*domain.Article, err error) {
	err = r.s.with(ctx, func(st *state) error {
		all := make([]*domain.Article, 0, len(st.articles))
		for _, a := range st.articles {
			all = append(all, a)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID > all[j].ID
		})

		if offset < 0 || offset >= len(all) {
			return nil
		}
		for i := offset; i < len(all) && len(articles) < limit; i++ {
			c := *all[i]
			articles = append(articles, &c)
		}
		return nil
	})
	return articles, err
}

func (r *articleRepo) Count(ctx context.Context) (total int64, err error) {
	err = r.s.with(ctx, func(st *state) error {
		total = int64(len(st.articles))
		return nil
	})
	return total, err
}

func (r *articleRepo) IncrementViewCount(ctx context.Context, id int64) error {
	return r.s.with(ctx, func(st *state) error {
		if a, ok := st.articles[id]; ok {
			a.ViewCount++
		}
		return nil
	})
}

type followRepo struct{ s *Store }

func (r *followRepo) Exists(ctx context.Context, followerID, followedID int64) (exists bool, err error) {
	err = r.s.with(ctx, func(st *state) error {
		_, exists = st.follows[edge{followerID, followedID}]
		return nil
	})
	return exists, err
}

func (r *followRepo) Create(ctx context.Context, follow *domain.Follow) error {
	return r.s.with(ctx, func(st *state) error {
		if follow.FollowerID == follow.FollowedID {
			return fmt.Errorf("follow %d->%d: self edge", follow.FollowerID, follow.FollowedID)
		}
		key := edge{follow.FollowerID, follow.FollowedID}
		if _, ok := st.follows[key]; ok {
			return fmt.Errorf("follow %d->%d: %w", follow.FollowerID, follow.FollowedID, domain.ErrDuplicate)
		}
		st.nextFollowID++
		follow.ID = st.nextFollowID
		follow.CreatedAt = time.Now().UTC()
		c := *follow
		st.follows[key] = &c
		return nil
	})
}

func (r *followRepo) Delete(ctx context.Context, followerID, followedID int64) (removed bool, err error) {
	err = r.s.with(ctx, func(st *state) error {
		key := edge{followerID, followedID}
		if _, removed = st.follows[key]; removed {
			delete(st.follows, key)
		}
		return nil
	})
	return removed, err
}

func (r *followRepo) CountByFollowedID(ctx context.Context, followedID int64) (total int64, err error) {
	err = r.s.with(ctx, func(st *state) error {
		for k := range st.follows {
			if k.followed == followedID {
				total++
			}
		}
		return nil
	})
	return total, err
}

func (r *followRepo) CountByFollowerID(ctx context.Context, followerID int64) (total int64, err error) {
	err = r.s.with(ctx, func(st *state) error {
		for k := range st.follows {
			if k.follower == followerID {
				total++
			}
		}
		return nil
	})
	return total, err
}

type auditLogRepo struct{ s *Store }

func (r *auditLogRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.s.with(ctx, func(st *state) error {
		st.nextAuditID++
		log.ID = st.nextAuditID
		log.CreatedAt = time.Now().UTC()
		c := *log
		st.auditLogs = append(st.auditLogs, &c)
		return nil
	})
}

func (r *auditLogRepo) FindByEntityID(ctx context.Context, entityType domain.EntityType, entityID int64) (logs []*domain.AuditLog, err error) {
	err = r.s.with(ctx, func(st *state) error {
		logs = make([]*domain.AuditLog, 0)
		for i := len(st.auditLogs) - 1; i >= 0; i-- {
			l := st.auditLogs[i]
			if l.EntityType == entityType && l.EntityID == entityID {
				c := *l
				logs = append(logs, &c)
			}
		}
		return nil
	})
	return logs, err
}
