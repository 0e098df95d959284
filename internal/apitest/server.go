package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/itemdesk/pkg/middleware"
	"golang.org/x/crypto/bcrypt"
)

// Secret はスタブAPIがトークンの署名に使う秘密鍵。
const Secret = "apitest-secret"

// TokenField はログイン・登録成功時にトークンを格納するフィールド名の指定。
type TokenField string

const (
	// TokenFieldAccessToken は "access_token" に格納する。
	TokenFieldAccessToken TokenField = "access_token"
	// TokenFieldToken は "token" に格納する。
	TokenFieldToken TokenField = "token"
	// TokenFieldNone はトークンを返さない。
	TokenFieldNone TokenField = ""
)

// Options はスタブAPIの挙動を切り替える。
type Options struct {
	// TokenField はトークンを返すフィールド名。ゼロ値ではaccess_tokenを使う。
	TokenField *TokenField
	// WrapList がtrueの場合、一覧を {"items": [...]} で返す。
	WrapList bool
}

// User は登録済みユーザー。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
}

// Item はスタブAPIが保持するアイテム。
type Item struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server はメモリ上にデータを持つスタブAPIサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// opts は挙動の切り替え。
	opts Options

	mu    sync.Mutex
	users map[string]*User
	items map[string]*Item
	// requests は受け付けたリクエスト数。
	requests int
}

func init() {
	gin.SetMode(gin.TestMode)
}

// New はスタブAPIサーバーを生成する。
func New(opts Options) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())

	s := &Server{
		router: router,
		opts:   opts,
		users:  make(map[string]*User),
		items:  make(map[string]*Item),
	}
	router.Use(s.countRequests())
	s.setupRoutes()
	return s
}

// Start はhttptest.Serverでスタブを起動し、テスト終了時に停止する。
func Start(t testing.TB, opts Options) (*Server, *httptest.Server) {
	t.Helper()

	s := New(opts)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

// ServeHTTP はhttp.Handlerを実装する。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	user := s.router.Group("/user")
	{
		user.POST("/register/", s.handleRegister())
		user.POST("/login/", s.handleLogin())
	}

	item := s.router.Group("/item")
	item.Use(middleware.BearerAuth(Secret))
	{
		item.GET("/read/", s.handleList())
		item.POST("/create/", s.handleCreate())
		item.PUT("/update/:id", s.handleUpdate())
		item.DELETE("/delete/:id", s.handleDelete())
	}
}

// countRequests は受け付けたリクエストを数えるミドルウェアを返す。
func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		c.Next()
	}
}

// Requests は受け付けたリクエスト数を返す。
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// itemRequest はアイテム作成・更新リクエストのJSON構造。
type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// validateCredentials はユーザー名とパスワードの長さを検証する。
func validateCredentials(username, password string) string {
	if n := len(username); n < 3 || n > 50 {
		return "username must be between 3 and 50 characters"
	}
	if n := len(password); n < 6 || n > 128 {
		return "password must be between 6 and 128 characters"
	}
	return ""
}

func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		if msg := validateCredentials(req.Username, req.Password); msg != "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": msg})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to hash password"})
			return
		}

		s.mu.Lock()
		if _, exists := s.users[req.Username]; exists {
			s.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already registered"})
			return
		}
		u := &User{ID: uuid.New().String(), Username: req.Username, Email: req.Email, PasswordHash: hash}
		s.users[req.Username] = u
		s.mu.Unlock()

		s.respondToken(c, u)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}

		s.mu.Lock()
		u, ok := s.users[req.Username]
		s.mu.Unlock()
		if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
			return
		}

		s.respondToken(c, u)
	}
}

// respondToken はトークンを設定に応じたフィールドに入れて返す。
func (s *Server) respondToken(c *gin.Context, u *User) {
	token, err := middleware.IssueToken(Secret, u.ID, u.Username, time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to issue token"})
		return
	}

	field := TokenFieldAccessToken
	if s.opts.TokenField != nil {
		field = *s.opts.TokenField
	}
	body := gin.H{"token_type": "bearer"}
	if field != TokenFieldNone {
		body[string(field)] = token
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := middleware.UserID(c)

		s.mu.Lock()
		list := make([]Item, 0)
		for _, it := range s.items {
			if it.OwnerID == owner {
				list = append(list, *it)
			}
		}
		s.mu.Unlock()
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

		if s.opts.WrapList {
			c.JSON(http.StatusOK, gin.H{"items": list})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" || req.Description == nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "name and description are required"})
			return
		}

		it := &Item{
			ID:          uuid.New().String(),
			OwnerID:     middleware.UserID(c),
			Name:        *req.Name,
			Description: *req.Description,
		}
		s.mu.Lock()
		s.items[it.ID] = it
		s.mu.Unlock()

		c.JSON(http.StatusCreated, it)
	}
}

func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		it, status, detail := s.ownedItem(c)
		if it == nil {
			c.JSON(status, gin.H{"detail": detail})
			return
		}
		if req.Name != nil {
			it.Name = *req.Name
		}
		if req.Description != nil {
			it.Description = *req.Description
		}
		c.JSON(http.StatusOK, it)
	}
}

func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		it, status, detail := s.ownedItem(c)
		if it == nil {
			c.JSON(status, gin.H{"detail": detail})
			return
		}
		delete(s.items, it.ID)
		c.Status(http.StatusNoContent)
	}
}

// ownedItem はパスのIDに対応し、かつ認証ユーザーが所有するアイテムを返す。
// 呼び出し側でs.muを保持していること。
func (s *Server) ownedItem(c *gin.Context) (*Item, int, string) {
	it, ok := s.items[c.Param("id")]
	if !ok {
		return nil, http.StatusNotFound, "Item not found"
	}
	if it.OwnerID != middleware.UserID(c) {
		return nil, http.StatusForbidden, "Not authorized to modify this item"
	}
	return it, 0, ""
}

// Items はownerIDが所有するアイテムを名前順で返す。
func (s *Server) Items(ownerID string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Item
	for _, it := range s.items {
		if it.OwnerID == ownerID {
			list = append(list, *it)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// UserID はユーザー名に対応するユーザーIDを返す。
func (s *Server) UserID(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		return u.ID
	}
	return ""
}

// SeedItem はownerIDのアイテムを直接追加する。
func (s *Server) SeedItem(ownerID, name, description string) Item {
	it := &Item{ID: uuid.New().String(), OwnerID: ownerID, Name: name, Description: description}
	s.mu.Lock()
	s.items[it.ID] = it
	s.mu.Unlock()
	return *it
}
