package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"secondhand/internal/images"
	"secondhand/internal/views"
)

// RouterOptions configures the engine around the handlers.
type RouterOptions struct {
	SessionSecret string
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
	// UploadDir is served at UploadURL when files are stored locally.
	UploadDir string
	UploadURL string
	Registry  *prometheus.Registry
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router(opts RouterOptions) (*gin.Engine, error) {
	if opts.SessionSecret == "" {
		return nil, fmt.Errorf("handlers.Router: session secret is empty")
	}
	tmpl, err := views.Parse()
	if err != nil {
		return nil, fmt.Errorf("handlers.Router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))
	if opts.Registry != nil {
		r.Use(NewMetrics(opts.Registry).middleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	r.SetHTMLTemplate(tmpl)
	// Several images per request fit in memory; larger bodies spill to disk.
	r.MaxMultipartMemory = 4 * images.MaxSize

	if opts.UploadDir != "" {
		r.Static(opts.UploadURL, opts.UploadDir)
	}

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("secondhand_session", store))

	r.GET("/health", h.health)
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/admin/products") })

	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.GET("/logout", h.logout)
	r.GET("/auth/google", h.googleStart)
	r.GET("/auth/google/callback", h.googleCallback)

	r.GET("/forgot-password", h.forgotPasswordPage)
	r.GET("/api/send-otp", h.sendOTP)
	r.POST("/api/verify-otp", h.verifyOTP)
	r.GET("/reset-password", h.resetPasswordPage)
	r.POST("/reset-password", h.resetPassword)

	r.POST("/api/shipping/cost", h.shippingCost)

	account := r.Group("/", h.mustLogin())
	account.GET("/change-password", h.changePasswordPage)
	account.POST("/change-password", h.changePassword)
	account.GET("/success-changepassword", h.changePasswordDone)
	account.GET("/profile", h.profile)
	account.GET("/update-account", h.updateAccountPage)
	account.POST("/update-account", h.updateAccount)

	admin := r.Group("/", h.mustLogin(), h.mustAdmin())
	admin.Any("/api/products", h.productsAPI)
	admin.DELETE("/api/product-images", h.deleteProductImage)
	admin.GET("/admin/products", h.adminProducts)
	admin.GET("/admin/products/new", h.adminProductNew)
	admin.GET("/admin/products/edit", h.adminProductEdit)

	return r, nil
}
