package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindEntries(t *testing.T) {
	tests := []struct {
		kind   Kind
		code   int
		status int
	}{
		{KindUsernameAlreadyExists, 1001, http.StatusConflict},
		{KindMissingRequiredFields, 1002, http.StatusBadRequest},
		{KindInvalidCredentials, 1003, http.StatusUnauthorized},
		{KindUnauthorized, 1004, http.StatusUnauthorized},
		{KindUserNotFound, 1005, http.StatusNotFound},
		{KindForbidden, 1006, http.StatusForbidden},
		{KindAlreadyFollowed, 1011, http.StatusConflict},
		{KindNotFollowed, 1012, http.StatusConflict},
		{KindCannotFollowSelf, 1013, http.StatusBadRequest},
		{KindArticleTitleContentEmpty, 2001, http.StatusBadRequest},
		{KindArticleNotFound, 2002, http.StatusNotFound},
		{KindArticleAccessDenied, 2003, http.StatusForbidden},
		{KindArticleListError, 2004, http.StatusInternalServerError},
		{KindInternalServerError, 5000, http.StatusInternalServerError},
		{KindInvalidToken, 5001, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			e := tt.kind.Entry()
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.status, e.Status)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestKindsAreUniqueAndComplete(t *testing.T) {
	all := kinds()
	assert.Len(t, all, len(taxonomy))

	codes := make(map[int]Kind)
	for _, k := range all {
		e := k.Entry()
		prev, dup := codes[e.Code]
		assert.False(t, dup, "code %d shared by %s and %s", e.Code, prev, k)
		codes[e.Code] = k
		assert.NotContains(t, k.String(), "kind(")
	}
}

func TestUnknownKindResolvesToInternal(t *testing.T) {
	k := Kind(999)
	assert.Equal(t, KindInternalServerError.Entry(), k.Entry())
	assert.Equal(t, "kind(999)", k.String())
}

func TestKindOf(t *testing.T) {
	cause := errors.New("db down")

	assert.Equal(t, KindInternalServerError, KindOf(cause))
	assert.Equal(t, KindInternalServerError, KindOf(nil))
	assert.Equal(t, KindUserNotFound, KindOf(NewError(KindUserNotFound)))

	wrapped := fmt.Errorf("outer: %w", WrapError(KindAlreadyFollowed, cause))
	assert.Equal(t, KindAlreadyFollowed, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindForbidden)
	assert.Equal(t, KindForbidden.Entry().Message, err.Message())
	assert.Contains(t, err.Error(), "forbidden")

	v := Validation("followedUserId is required.")
	require.Equal(t, KindMissingRequiredFields, v.Kind)
	assert.Equal(t, "followedUserId is required.", v.Message())

	w := WrapError(KindInternalServerError, errors.New("boom"))
	assert.Contains(t, w.Error(), "boom")
}
