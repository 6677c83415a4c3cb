package endpoint

import (
	"log"
	"net/http"

	"github.com/TurahWilson/TubesIAE/gateway"
	"github.com/TurahWilson/TubesIAE/middleware"
	"github.com/TurahWilson/TubesIAE/model"
	"github.com/TurahWilson/TubesIAE/util"
	"github.com/gin-gonic/gin"
)

// Index godoc
// @Summary      Entry point
// @Description  Sends a restored session to the dashboard, otherwise shows the login form
// @Tags         Authentication
// @Produce      html,json
// @Success      200 {object} util.APIResponse{data=model.Session}
// @Failure      401 {object} util.APIResponse
// @Router       / [get]
func (h *Handler) Index(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if ok {
		redirectOr(c, "/dashboard", "Session restored", sess)
		return
	}
	if util.WantsJSON(c) {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Not logged in"})
		return
	}
	c.HTML(http.StatusOK, "login.html", authView{})
}

// Login godoc
// @Summary      User login
// @Description  Exchange credentials for a bearer token and start a dashboard session
// @Tags         Authentication
// @Accept       x-www-form-urlencoded,json
// @Produce      html,json
// @Param        request body model.LoginRequest true "Login credentials"
// @Success      303
// @Success      200 {object} util.APIResponse{data=model.Session}
// @Failure      400 {object} util.APIResponse
// @Failure      401 {object} util.APIResponse
// @Router       /login [post]
func (h *Handler) Login(c *gin.Context) {
	ip, agent := c.ClientIP(), c.Request.UserAgent()

	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		util.LogLoginFailure(req.Username, ip, agent, "incomplete credentials")
		respond(c, http.StatusBadRequest, "login.html", authView{Alert: msgLoginFailed, Username: req.Username}, msgLoginFailed, err)
		return
	}

	sess, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		util.LogLoginFailure(req.Username, ip, agent, gateway.Message(err))
		respond(c, http.StatusUnauthorized, "login.html", authView{Alert: msgLoginFailed, Username: req.Username}, msgLoginFailed, err)
		return
	}

	h.setSessionCookie(c, sess.SessionID, h.cookieMaxAge())
	util.LogLoginSuccess(sess.SessionID, sess.Email, ip, agent)
	redirectOr(c, "/dashboard", "Login successful", sess)
}

// Logout godoc
// @Summary      User logout
// @Description  Delete the stored session and expire the cookie
// @Tags         Authentication
// @Produce      html,json
// @Success      303
// @Success      200 {object} util.APIResponse
// @Router       /logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if id, err := c.Cookie(h.cookie.Name); err == nil && id != "" {
		if err := h.sessions.Logout(c.Request.Context(), id); err != nil {
			// The session is still stored, so the cookie stays valid too.
			log.Printf("Error deleting session: %v", err)
			respond(c, http.StatusInternalServerError, "error.html", authView{Alert: msgLogoutFailed}, msgLogoutFailed, err)
			return
		}
		var email string
		if sess, ok := middleware.GetSession(c); ok {
			email = sess.Email
		}
		util.LogLogout(id, email, c.ClientIP(), c.Request.UserAgent())
	}

	h.setSessionCookie(c, "", -1)
	redirectOr(c, "/", "Logout successful", nil)
}

// RegisterForm shows the account registration form.
func (h *Handler) RegisterForm(c *gin.Context) {
	respond(c, http.StatusOK, "register.html", authView{Roles: model.Roles}, "Registration form", nil)
}

// Register godoc
// @Summary      Register account
// @Description  Create an account on the remote auth service
// @Tags         Authentication
// @Accept       x-www-form-urlencoded,json
// @Produce      html,json
// @Param        request body model.RegisterRequest true "Account"
// @Success      200 {object} util.APIResponse
// @Failure      400 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /register [post]
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		respond(c, http.StatusBadRequest, "register.html", authView{Alert: msgMissingFields, Username: req.Email, Roles: model.Roles}, msgMissingFields, err)
		return
	}
	req.FullName = util.NormalizeName(req.FullName)

	if err := h.remote.Register(c.Request.Context(), req); err != nil {
		msg := gateway.Message(err)
		util.LogGatewayFailure("", req.Email, c.ClientIP(), "register", msg)
		respond(c, http.StatusBadGateway, "register.html", authView{Alert: msg, Username: req.Email, Roles: model.Roles}, msg, err)
		return
	}

	util.LogSignupSuccess(req.Email, model.NormalizeRole(req.Role), c.ClientIP(), c.Request.UserAgent())
	respond(c, http.StatusOK, "login.html", authView{Notice: "Registration successful, please log in", Username: req.Email}, "Registration successful", nil)
}

// Healthz godoc
// @Summary      Health check
// @Description  Local liveness plus the remote gateway health report
// @Tags         Health
// @Produce      json
// @Success      200 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	remote, err := h.remote.Health(c.Request.Context())
	if err != nil {
		util.CallBadGateway(c, util.APIErrorParams{Msg: gateway.Message(err), Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "ok",
		Data: map[string]interface{}{"status": "ok", "remote": remote},
	})
}
