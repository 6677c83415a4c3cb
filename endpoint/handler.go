package endpoint

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/TurahWilson/TubesIAE/dashboard"
	"github.com/TurahWilson/TubesIAE/gateway"
	"github.com/TurahWilson/TubesIAE/middleware"
	"github.com/TurahWilson/TubesIAE/model"
	"github.com/TurahWilson/TubesIAE/util"
	"github.com/gin-gonic/gin"
)

const (
	msgLoginFailed   = "Login failed"
	msgPageNotFound  = "Page not found"
	msgMissingFields = "Please fill in every required field"
	msgLogoutFailed  = "Logout failed, please try again"
)

// Sessions creates and destroys dashboard sessions.
type Sessions interface {
	Login(ctx context.Context, identifier, secret string) (*model.Session, error)
	Logout(ctx context.Context, id string) error
}

// Remote is the part of the remote API used outside the entity panels.
type Remote interface {
	Register(ctx context.Context, r model.RegisterRequest) error
	Health(ctx context.Context) (map[string]interface{}, error)
}

// CookieConfig describes the session cookie. It lives as long as the
// stored session is retained; Secure restricts it to HTTPS.
type CookieConfig struct {
	Name      string
	Retention time.Duration
	Secure    bool
}

// Handler serves the dashboard pages and their JSON twins.
type Handler struct {
	sessions Sessions
	remote   Remote
	router   *dashboard.Router
	cookie   CookieConfig
}

func NewHandler(sessions Sessions, remote Remote, router *dashboard.Router, cookie CookieConfig) *Handler {
	return &Handler{
		sessions: sessions,
		remote:   remote,
		router:   router,
		cookie:   cookie,
	}
}

func (h *Handler) cookieMaxAge() int {
	return int(h.cookie.Retention / time.Second)
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}

// Routes registers every dashboard route on r. limiter guards the
// credential endpoints and may be a pass-through.
func (h *Handler) Routes(r gin.IRouter, limiter gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)
	r.GET("/", h.Index)
	r.POST("/login", limiter, h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/register", h.RegisterForm)
	r.POST("/register", limiter, h.Register)

	pages := r.Group("", middleware.RequireSession())
	pages.GET("/:page", h.Page)
	pages.POST("/:page", h.Create)
	pages.GET("/:page/:id", h.View)
	pages.GET("/:page/:id/edit", h.EditForm)
	pages.POST("/:page/:id/edit", h.Update)
	pages.GET("/:page/:id/delete", h.ConfirmDelete)
	pages.POST("/:page/:id/delete", h.Delete)
}

// authView backs the login and registration forms.
type authView struct {
	Alert    string   `json:"alert,omitempty"`
	Notice   string   `json:"notice,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type detailView struct {
	Page   *dashboard.PageView `json:"page"`
	Detail dashboard.Detail    `json:"detail"`
}

type editView struct {
	Page   *dashboard.PageView   `json:"page"`
	ID     int                   `json:"id"`
	Fields []dashboard.FormField `json:"fields"`
}

type confirmView struct {
	Page *dashboard.PageView `json:"page"`
	ID   int                 `json:"id"`
}

// respond renders tmpl for browsers and the APIResponse envelope for JSON
// clients. msg doubles as the alert text on failures.
func respond(c *gin.Context, status int, tmpl string, view interface{}, msg string, err error) {
	if !util.WantsJSON(c) {
		c.HTML(status, tmpl, view)
		return
	}
	if status < http.StatusBadRequest {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: msg, Data: view})
		return
	}
	if err == nil {
		err = errors.New(msg)
	}
	params := util.APIErrorParams{Msg: msg, Err: err}
	switch status {
	case http.StatusBadRequest:
		util.CallUserError(c, params)
	case http.StatusUnauthorized:
		util.CallUserNotAuthorized(c, params)
	case http.StatusNotFound:
		util.CallErrorNotFound(c, params)
	case http.StatusBadGateway:
		util.CallBadGateway(c, params)
	default:
		util.CallServerError(c, params)
	}
}

// redirectOr sends browsers to location and JSON clients a success envelope.
func redirectOr(c *gin.Context, location, msg string, data interface{}) {
	if util.WantsJSON(c) {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: msg, Data: data})
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}

func notFound(c *gin.Context) {
	respond(c, http.StatusNotFound, "error.html", authView{Alert: msgPageNotFound}, msgPageNotFound, dashboard.ErrUnknownPage)
}

// alertFor turns any failure into the single line shown to the user.
func alertFor(err error) string {
	if errors.Is(err, dashboard.ErrInvalidInput) {
		return msgMissingFields
	}
	return gateway.Message(err)
}

func statusFor(err error) int {
	if errors.Is(err, dashboard.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// currentSession is only called behind RequireSession.
func currentSession(c *gin.Context) *model.Session {
	sess, _ := middleware.GetSession(c)
	return sess
}

// panelFor resolves the entity panel and numeric id of the request. It
// answers 404 itself when either is missing.
func (h *Handler) panelFor(c *gin.Context, withID bool) (dashboard.EntityPanel, int, bool) {
	panel, ok := h.router.Panel(c.Param("page"))
	if !ok {
		notFound(c)
		return nil, 0, false
	}
	if !withID {
		return panel, 0, true
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		notFound(c)
		return nil, 0, false
	}
	return panel, id, true
}

// logTransportFailure audits calls that never got an HTTP response.
// Answers from the remote API, errors included, are not logged.
func logTransportFailure(c *gin.Context, sess *model.Session, operation string, err error) {
	var transportErr *gateway.TransportError
	if !errors.As(err, &transportErr) {
		return
	}
	util.LogGatewayFailure(sess.SessionID, sess.Email, c.ClientIP(), operation, transportErr.Error())
}

// failPage re-renders page after a failed action. The list is reloaded so
// the visible rows always match the server.
func (h *Handler) failPage(c *gin.Context, sess *model.Session, page, operation string, err error) {
	logTransportFailure(c, sess, operation, err)
	view, loadErr := h.router.Activate(c.Request.Context(), sess, page)
	if view == nil {
		view = h.router.Shell(sess, page)
	}
	logTransportFailure(c, sess, "load "+page, loadErr)
	view.Alert = alertFor(err)
	respond(c, statusFor(err), "page.html", view, view.Alert, err)
}
