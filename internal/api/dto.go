package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"blogflow/internal/domain"
)

const maxBodyBytes = 1 << 20

const tokenTypeBearer = "Bearer"

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
}

type followRequest struct {
	FollowedUserID *int64 `json:"followedUserId"`
}

type createArticleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Tags     string `json:"tags"`
	Category string `json:"category"`
}

type updateArticleRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Tags     *string `json:"tags"`
	Category *string `json:"category"`
}

type registerResponse struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	CreateTime    string `json:"create_time"`
	LastLoginTime string `json:"last_login_time"`
}

type userInfo struct {
	UserID        int64  `json:"userId"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	CreateTime    string `json:"create_time"`
	LastLoginTime string `json:"last_login_time"`
}

type loginResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	User         userInfo `json:"user"`
}

type userProfileResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
}

type articleCreateResponse struct {
	ArticleID  string `json:"articleId"`
	Title      string `json:"title"`
	CreateTime string `json:"create_time"`
}

type articleDetailResponse struct {
	ArticleID  string   `json:"articleId"`
	Title      string   `json:"title"`
	AuthorName string   `json:"authorName"`
	CreateTime string   `json:"create_time"`
	ViewCount  int64    `json:"view_count"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Category   string   `json:"category"`
}

type articleListItem struct {
	ArticleID  string `json:"articleId"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	AuthorName string `json:"authorName"`
	CreateTime string `json:"create_time"`
	ViewCount  int64  `json:"view_count"`
}

type articleListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	List     []articleListItem `json:"list"`
}

type articleUpdateResponse struct {
	ArticleID  string `json:"articleId"`
	UpdateTime string `json:"update_time"`
}

// epoch renders t as unix seconds; the zero time renders as "0".
func epoch(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func epochPtr(t *time.Time) string {
	if t == nil {
		return "0"
	}
	return epoch(*t)
}

func toUserInfo(u *domain.User) userInfo {
	return userInfo{
		UserID:        u.ID,
		Username:      u.Username,
		Name:          u.Name,
		CreateTime:    epoch(u.CreatedAt),
		LastLoginTime: epochPtr(u.LastLoginAt),
	}
}

func toRegisterResponse(u *domain.User) registerResponse {
	return registerResponse{
		UserID:        strconv.FormatInt(u.ID, 10),
		Username:      u.Username,
		Name:          u.Name,
		CreateTime:    epoch(u.CreatedAt),
		LastLoginTime: epochPtr(u.LastLoginAt),
	}
}

func toLoginResponse(p *domain.TokenPair) loginResponse {
	return loginResponse{
		AccessToken:  p.AccessToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(p.ExpiresIn / time.Second),
		RefreshToken: p.RefreshToken,
		User:         toUserInfo(p.User),
	}
}

func toProfileResponse(p *domain.Profile) userProfileResponse {
	return userProfileResponse{
		ID:        p.User.ID,
		Username:  p.User.Username,
		Name:      p.User.Name,
		Email:     p.User.Email,
		Followers: p.Followers,
		Following: p.Following,
	}
}

func articleID(a *domain.Article) string {
	return strconv.FormatInt(a.ID, 10)
}

func toArticleDetail(a *domain.Article) articleDetailResponse {
	tags := a.TagList()
	if tags == nil {
		tags = []string{}
	}
	return articleDetailResponse{
		ArticleID:  articleID(a),
		Title:      a.Title,
		AuthorName: a.AuthorName,
		CreateTime: epoch(a.CreatedAt),
		ViewCount:  a.ViewCount,
		Content:    a.Content,
		Tags:       tags,
		Category:   a.Category,
	}
}

func toArticleList(p *domain.ArticlePage) articleListResponse {
	items := make([]articleListItem, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, articleListItem{
			ArticleID:  articleID(a),
			Title:      a.Title,
			Summary:    a.Summary,
			AuthorName: a.AuthorName,
			CreateTime: epoch(a.CreatedAt),
			ViewCount:  a.ViewCount,
		})
	}
	return articleListResponse{
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
		List:     items,
	}
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("Request body is required.")
		}
		return domain.Validation("Request body is not valid JSON.")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Validation("Invalid " + name + ".")
	}
	return id, nil
}

// queryInt parses an optional integer; absent or malformed values yield 0.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
