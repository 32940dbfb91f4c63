package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDuplicate is returned by repositories when a write hits a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Kind is a business failure category. The set is closed.
type Kind int

const (
	KindInternalServerError Kind = iota
	KindUsernameAlreadyExists
	KindMissingRequiredFields
	KindInvalidCredentials
	KindUnauthorized
	KindUserNotFound
	KindForbidden
	KindAlreadyFollowed
	KindNotFollowed
	KindCannotFollowSelf
	KindArticleTitleContentEmpty
	KindArticleNotFound
	KindArticleAccessDenied
	KindArticleListError
	KindInvalidToken
)

// ErrorEntry is the wire identity of a Kind.
type ErrorEntry struct {
	Code    int
	Message string
	Status  int
}

var taxonomy = map[Kind]ErrorEntry{
	KindUsernameAlreadyExists:    {Code: 1001, Message: "Username is already taken.", Status: http.StatusConflict},
	KindMissingRequiredFields:    {Code: 1002, Message: "Username and password are required.", Status: http.StatusBadRequest},
	KindInvalidCredentials:       {Code: 1003, Message: "Invalid username or password.", Status: http.StatusUnauthorized},
	KindUnauthorized:             {Code: 1004, Message: "Login or a valid access token is required.", Status: http.StatusUnauthorized},
	KindUserNotFound:             {Code: 1005, Message: "User not found.", Status: http.StatusNotFound},
	KindForbidden:                {Code: 1006, Message: "You are not allowed to update this profile.", Status: http.StatusForbidden},
	KindAlreadyFollowed:          {Code: 1011, Message: "You already follow this user.", Status: http.StatusConflict},
	KindNotFollowed:              {Code: 1012, Message: "You do not follow this user.", Status: http.StatusConflict},
	KindCannotFollowSelf:         {Code: 1013, Message: "You cannot follow yourself.", Status: http.StatusBadRequest},
	KindArticleTitleContentEmpty: {Code: 2001, Message: "Article title and content must not be empty.", Status: http.StatusBadRequest},
	KindArticleNotFound:          {Code: 2002, Message: "Article not found.", Status: http.StatusNotFound},
	KindArticleAccessDenied:      {Code: 2003, Message: "You are not allowed to modify this article.", Status: http.StatusForbidden},
	KindArticleListError:         {Code: 2004, Message: "Failed to load the article list.", Status: http.StatusInternalServerError},
	KindInternalServerError:      {Code: 5000, Message: "Internal server error.", Status: http.StatusInternalServerError},
	KindInvalidToken:             {Code: 5001, Message: "Invalid access token.", Status: http.StatusUnauthorized},
}

var kindNames = map[Kind]string{
	KindUsernameAlreadyExists:    "username_already_exists",
	KindMissingRequiredFields:    "missing_required_fields",
	KindInvalidCredentials:       "invalid_credentials",
	KindUnauthorized:             "unauthorized",
	KindUserNotFound:             "user_not_found",
	KindForbidden:                "forbidden",
	KindAlreadyFollowed:          "already_followed",
	KindNotFollowed:              "not_followed",
	KindCannotFollowSelf:         "cannot_follow_self",
	KindArticleTitleContentEmpty: "article_title_content_empty",
	KindArticleNotFound:          "article_not_found",
	KindArticleAccessDenied:      "article_access_denied",
	KindArticleListError:         "article_list_error",
	KindInternalServerError:      "internal_server_error",
	KindInvalidToken:             "invalid_token",
}

// Entry returns the table row for k. Unknown kinds resolve to the internal error row.
func (k Kind) Entry() ErrorEntry {
	if e, ok := taxonomy[k]; ok {
		return e
	}
	return taxonomy[KindInternalServerError]
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// kinds lists every kind in the taxonomy.
func kinds() []Kind {
	all := make([]Kind, 0, len(taxonomy))
	for k := KindInternalServerError; k <= KindInvalidToken; k++ {
		all = append(all, k)
	}
	return all
}

// Error is a business rule violation. Detail, when set, replaces the table
// message on the wire; Cause is kept for operators only.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message is the caller-facing text.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Kind.Entry().Message
}

func NewError(kind Kind) *Error {
	return &Error{Kind: kind}
}

func WrapError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Validation reports malformed structured input. It shares the
// MissingRequiredFields row but carries the specific problem as its message.
func Validation(detail string) *Error {
	return &Error{Kind: KindMissingRequiredFields, Detail: detail}
}

// KindOf extracts the business kind from err. Anything that is not a
// business error is an internal error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternalServerError
}
