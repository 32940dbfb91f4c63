package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blogflow/internal/auth"
	"blogflow/internal/concurrent"
	"blogflow/internal/domain"
	"blogflow/internal/repository/memory"
	"blogflow/pkg/logger"
)

// inlineJobs runs every submitted job immediately.
type inlineJobs struct{}

func (inlineJobs) Submit(job concurrent.Job) bool {
	_ = job.Run(context.Background())
	return true
}

// rejectingJobs refuses every job, forcing the inline fallback.
type rejectingJobs struct{}

func (rejectingJobs) Submit(concurrent.Job) bool { return false }

type fixture struct {
	store    *memory.Store
	access   *auth.JWTProvider
	refresh  *auth.JWTProvider
	users    domain.UserService
	follows  domain.FollowService
	articles domain.ArticleService
}

func newFixture(t *testing.T, jobs JobSubmitter) *fixture {
	t.Helper()

	log := logger.Nop()
	store := memory.NewStore()
	audit := NewAuditLogService(log)
	access := auth.NewJWTProvider([]byte("access"), time.Hour, "blogflow", auth.TokenTypeAccess)
	refresh := auth.NewJWTProvider([]byte("refresh"), 24*time.Hour, "blogflow", auth.TokenTypeRefresh)

	return &fixture{
		store:    store,
		access:   access,
		refresh:  refresh,
		users:    NewUserService(store, auth.NewBcryptHasher(bcrypt.MinCost), access, refresh, audit, log),
		follows:  NewFollowService(store, audit, log),
		articles: NewArticleService(store, jobs, audit, log),
	}
}

func (f *fixture) register(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), domain.RegisterInput{Username: username, Password: "pw-" + username})
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "got %v", err)
}

func strPtr(s string) *string { return &s }
