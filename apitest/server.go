// Package apitest runs an in-process imitation of the remote clinical
// records gateway for tests. It keeps every collection in memory and
// answers with the same shapes and "detail" errors as the real services.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const signingKey = "apitest-signing-key"

// Collection describes one remote resource.
type Collection struct {
	Path     string
	IDField  string
	Required []string
	// Stamp adds a created_at field to new items.
	Stamp bool
}

var collections = []Collection{
	{Path: "/patients/patients", IDField: "patient_id", Required: []string{"name", "email", "phone_number", "gender", "address"}},
	{Path: "/doctors/doctors", IDField: "doctor_id", Required: []string{"name", "specialization", "phone_number", "email", "license_number"}},
	{Path: "/records/records", IDField: "record_id", Required: []string{"patient_id", "doctor_id", "diagnosis"}, Stamp: true},
	{Path: "/records/prescriptions", IDField: "prescription_id", Required: []string{"record_id", "dosage", "instructions", "medicine_recipe"}},
}

type user struct {
	Email    string
	FullName string
	Password string
	Role     string
}

type store struct {
	Collection
	nextID int
	items  []map[string]interface{}
}

// Call is one request observed by the server.
type Call struct {
	Method        string
	Path          string
	ContentType   string
	Authorization string
}

// Server is a fake remote API backed by httptest.Server.
type Server struct {
	*httptest.Server

	// OmitRoleInToken drops "role" from token responses so clients must
	// read it from the JWT claims.
	OmitRoleInToken bool
	// AdminOnlyWrites rejects create, update and delete calls from non-admin tokens.
	AdminOnlyWrites bool
	// Now stamps new medical records.
	Now func() time.Time

	mu     sync.Mutex
	users  map[string]user
	tokens map[string]string
	stores map[string]*store
	calls  []Call
}

// NewServer starts a fake API. Callers must Close it.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		Now:    func() time.Time { return time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC) },
		users:  map[string]user{},
		tokens: map[string]string{},
		stores: map[string]*store{},
	}
	for _, c := range collections {
		s.stores[c.Path] = &store{Collection: c, nextID: 1}
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{Email: email, Password: password, Role: role}
}

// IssueToken returns a valid bearer token for an existing user.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(s.users[email])
}

// Count returns how many items a collection holds.
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[path]; ok {
		return len(st.items)
	}
	return 0
}

// Calls returns a copy of the requests seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls matching method and path.
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) issueLocked(u user) string {
	claims := jwt.MapClaims{"sub": u.Email, "role": u.Role}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	s.tokens[tok] = u.Email
	return tok
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(s.record)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth": gin.H{"status": "healthy"}})
	})
	r.POST("/auth/token", s.token)
	r.POST("/auth/register", s.register)

	for path := range s.stores {
		p := path
		authed := r.Group(p, s.authenticate)
		authed.GET("", func(c *gin.Context) { s.list(c, p) })
		authed.POST("", func(c *gin.Context) { s.create(c, p) })
		authed.GET("/:id", func(c *gin.Context) { s.get(c, p) })
		authed.PUT("/:id", func(c *gin.Context) { s.update(c, p) })
		authed.DELETE("/:id", func(c *gin.Context) { s.remove(c, p) })
	}
	return r
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		ContentType:   c.GetHeader("Content-Type"),
		Authorization: c.GetHeader("Authorization"),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) token(c *gin.Context) {
	if !strings.HasPrefix(c.GetHeader("Content-Type"), "application/x-www-form-urlencoded") {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body", "username"}, "msg": "field required"}}})
		return
	}
	username := c.PostForm("username")
	password := c.PostForm("password")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok || u.Password != password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
		return
	}
	resp := gin.H{"access_token": s.issueLocked(u), "token_type": "bearer"}
	if !s.OmitRoleInToken {
		resp["role"] = u.Role
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body", "email"}, "msg": "field required"}}})
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		return
	}
	s.users[req.Email] = user{Email: req.Email, FullName: req.FullName, Password: req.Password, Role: req.Role}
	c.JSON(http.StatusOK, gin.H{"id": len(s.users), "email": req.Email, "full_name": req.FullName, "role": req.Role})
}

func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tok := strings.TrimPrefix(header, "Bearer ")
	s.mu.Lock()
	email, ok := s.tokens[tok]
	role := s.users[email].Role
	s.mu.Unlock()
	if header == "" || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	if s.AdminOnlyWrites && c.Request.Method != http.MethodGet && role != "admin" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Not enough permissions"})
		return
	}
	c.Next()
}

func (s *Server) list(c *gin.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.stores[path].items
	if items == nil {
		items = []map[string]interface{}{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) create(c *gin.Context, path string) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stores[path]
	if missing := st.missing(body); len(missing) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": missing})
		return
	}

	item := map[string]interface{}{}
	for k, v := range body {
		item[k] = v
	}
	item[st.IDField] = st.nextID
	st.nextID++
	if st.Stamp {
		item["created_at"] = s.Now().Format("2006-01-02T15:04:05")
	}
	st.items = append(st.items, item)
	c.JSON(http.StatusOK, item)
}

// missing reports required fields absent from body the way FastAPI does.
func (st *store) missing(body map[string]interface{}) []gin.H {
	var out []gin.H
	for _, f := range st.Required {
		if v, ok := body[f]; !ok || v == "" || v == nil {
			out = append(out, gin.H{"loc": []string{"body", f}, "msg": "field required"})
		}
	}
	return out
}

func (s *Server) find(path, rawID string) (int, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return 0, false
	}
	st := s.stores[path]
	for i, item := range st.items {
		if v, ok := item[st.IDField].(int); ok && v == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Server) get(c *gin.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.find(path, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, s.stores[path].items[idx])
}

// update replaces an item with the request body. The id and creation
// stamp are kept.
func (s *Server) update(c *gin.Context, path string) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.find(path, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
		return
	}
	st := s.stores[path]
	if missing := st.missing(body); len(missing) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": missing})
		return
	}

	old := st.items[idx]
	item := map[string]interface{}{}
	for k, v := range body {
		item[k] = v
	}
	item[st.IDField] = old[st.IDField]
	if created, ok := old["created_at"]; ok {
		item["created_at"] = created
	}
	st.items[idx] = item
	c.JSON(http.StatusOK, item)
}

func (s *Server) remove(c *gin.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.find(path, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
		return
	}
	st := s.stores[path]
	st.items = append(st.items[:idx], st.items[idx+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
