package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"secondhand/internal/apperr"
	"secondhand/internal/service"
)

func (h *Handler) changePasswordPage(c *gin.Context) {
	u := currentUser(c)
	data := ViewData{}
	if u.IsFederated() {
		data["Error"] = service.MsgFederatedPassword
		data["Federated"] = true
	}
	c.HTML(http.StatusOK, "change_password.tmpl", withUser(c, data))
}

func (h *Handler) changePassword(c *gin.Context) {
	const op = "handlers.changePassword"
	u := currentUser(c)
	log := h.opLog(c, op).With(slog.String("user_id", u.ID.String()))

	err := h.accounts.ChangePassword(c.Request.Context(), u.ID, service.ChangePasswordRequest{
		OldPassword: c.PostForm("oldPassword"),
		NewPassword: c.PostForm("newPassword"),
	})
	if err != nil {
		failHTML(c, log, err, "change_password.tmpl", ViewData{"Federated": u.IsFederated()})
		return
	}
	c.Redirect(http.StatusSeeOther, "/success-changepassword")
}

func (h *Handler) changePasswordDone(c *gin.Context) {
	c.HTML(http.StatusOK, "message.tmpl", withUser(c, ViewData{
		"Title":   "Password changed",
		"Message": "Your password has been updated.",
		"Back":    "/profile",
	}))
}

func (h *Handler) forgotPasswordPage(c *gin.Context) {
	c.HTML(http.StatusOK, "forgot_password.tmpl", withUser(c, ViewData{
		"ResendAfter": int(h.resendAfter.Seconds()),
	}))
}

// sendOTP answers the same way whether or not the address is registered.
func (h *Handler) sendOTP(c *gin.Context) {
	const op = "handlers.sendOTP"
	log := h.opLog(c, op)

	if err := h.accounts.RequestOTP(c.Request.Context(), c.Query("email")); err != nil {
		failJSON(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "If the address is registered, a code has been sent to it.",
		"resendAfter": int(h.resendAfter.Seconds()),
	})
}

func (h *Handler) verifyOTP(c *gin.Context) {
	const op = "handlers.verifyOTP"
	log := h.opLog(c, op)

	token, err := h.accounts.VerifyOTP(c.Request.Context(), c.PostForm("email"), c.PostForm("otp"))
	if err != nil {
		failJSON(c, log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/reset-password?token=" + url.QueryEscape(token)})
}

func (h *Handler) resetPasswordPage(c *gin.Context) {
	c.HTML(http.StatusOK, "reset_password.tmpl", withUser(c, ViewData{
		"Token":     c.Query("token"),
		"MinLength": service.MinPasswordLength,
	}))
}

func (h *Handler) resetPassword(c *gin.Context) {
	const op = "handlers.resetPassword"
	log := h.opLog(c, op)

	err := h.accounts.ResetPassword(c.Request.Context(), service.ResetPasswordRequest{
		Token:           c.PostForm("token"),
		NewPassword:     c.PostForm("newPassword"),
		ConfirmPassword: c.PostForm("confirmPassword"),
	})
	if err != nil {
		logFailure(log, err)
		c.JSON(apperr.Status(err), gin.H{"error": apperr.Public(err), "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your password has been reset. You can sign in now.", "success": true})
}

func (h *Handler) profile(c *gin.Context) {
	c.HTML(http.StatusOK, "profile.tmpl", withUser(c, nil))
}

func (h *Handler) updateAccountPage(c *gin.Context) {
	c.HTML(http.StatusOK, "update_account.tmpl", withUser(c, nil))
}

func (h *Handler) updateAccount(c *gin.Context) {
	const op = "handlers.updateAccount"
	u := currentUser(c)
	log := h.opLog(c, op).With(slog.String("user_id", u.ID.String()))

	req := service.ProfileRequest{
		Username:    c.PostForm("username"),
		FullName:    c.PostForm("fullName"),
		PhoneNumber: c.PostForm("phoneNumber"),
		Address:     c.PostForm("address"),
	}
	if err := h.accounts.UpdateProfile(c.Request.Context(), u.ID, req); err != nil {
		failHTML(c, log, err, "update_account.tmpl", ViewData{"Form": req})
		return
	}
	c.Redirect(http.StatusSeeOther, "/profile")
}
