package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"secondhand/internal/apperr"
	"secondhand/internal/lib/sl"
	"secondhand/internal/oauth"
)

func (h *Handler) loginPage(c *gin.Context) {
	if _, ok := sessionUserID(c); ok {
		c.Redirect(http.StatusSeeOther, "/admin/products")
		return
	}
	c.HTML(http.StatusOK, "login.tmpl", withUser(c, ViewData{"GoogleEnabled": h.google.Enabled()}))
}

// login is the admin sign-in. Non-admin accounts get the Unauthorized code,
// bad credentials get InvalidCredentials.
func (h *Handler) login(c *gin.Context) {
	const op = "handlers.login"
	log := h.opLog(c, op)
	ident := c.PostForm("login")
	data := ViewData{"Login": ident, "GoogleEnabled": h.google.Enabled()}

	u, err := h.auth.LoginAdmin(c.Request.Context(), ident, c.PostForm("password"))
	if err != nil {
		failHTML(c, log, err, "login.tmpl", data)
		return
	}
	if err := startSession(c, u); err != nil {
		failHTML(c, log, apperr.Storage(err), "login.tmpl", data)
		return
	}
	log.Info("admin signed in", slog.String("user_id", u.ID.String()))
	c.Redirect(http.StatusSeeOther, "/admin/products")
}

func (h *Handler) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		h.log.Warn("failed to clear session", sl.Err(err))
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) googleStart(c *gin.Context) {
	const op = "handlers.googleStart"
	if !h.google.Enabled() {
		c.String(http.StatusNotFound, "Google sign-in is not configured")
		return
	}
	state := uuid.NewString()
	sess := sessions.Default(c)
	sess.Set(sessOAuthState, state)
	if err := sess.Save(); err != nil {
		failHTML(c, h.opLog(c, op), apperr.Storage(err), "login.tmpl", nil)
		return
	}
	c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

func (h *Handler) googleCallback(c *gin.Context) {
	const op = "handlers.googleCallback"
	log := h.opLog(c, op)
	data := ViewData{"GoogleEnabled": h.google.Enabled()}

	sess := sessions.Default(c)
	want, _ := sess.Get(sessOAuthState).(string)
	sess.Delete(sessOAuthState)
	got := c.Query("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		_ = sess.Save()
		failHTML(c, log, apperr.Validation("Google sign-in expired, please try again."), "login.tmpl", data)
		return
	}
	if e := c.Query("error"); e != "" {
		_ = sess.Save()
		log.Info("google sign-in cancelled", slog.String("error", e))
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	id, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		_ = sess.Save()
		if errors.Is(err, oauth.ErrEmailNotVerified) {
			err = apperr.Authentication("Your Google email address is not verified.")
		} else {
			err = apperr.Upstream(err)
		}
		failHTML(c, log, err, "login.tmpl", data)
		return
	}
	u, err := h.auth.SignInWithGoogle(c.Request.Context(), id)
	if err != nil {
		_ = sess.Save()
		failHTML(c, log, err, "login.tmpl", data)
		return
	}
	if err := startSession(c, u); err != nil {
		failHTML(c, log, apperr.Storage(err), "login.tmpl", data)
		return
	}
	log.Info("signed in with google", slog.String("user_id", u.ID.String()))
	if u.IsAdmin() {
		c.Redirect(http.StatusSeeOther, "/admin/products")
		return
	}
	c.Redirect(http.StatusSeeOther, "/profile")
}
