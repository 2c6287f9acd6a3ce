// Package handlers wires the HTTP surface: JSON APIs, admin pages and the
// account flows.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"secondhand/internal/apperr"
	"secondhand/internal/lib/sl"
	"secondhand/internal/models"
	"secondhand/internal/oauth"
	"secondhand/internal/service"
	"secondhand/internal/shipping"
)

type ProductService interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, req service.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, req service.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteImage(ctx context.Context, id string) error
}

type AuthService interface {
	LoginAdmin(ctx context.Context, login, password string) (*models.User, error)
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	SignInWithGoogle(ctx context.Context, id *oauth.Identity) (*models.User, error)
}

type AccountService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req service.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, req service.ResetPasswordRequest) error
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req service.ProfileRequest) error
}

type ShippingQuoter interface {
	Cost(ctx context.Context, r shipping.Request) ([]shipping.Cost, error)
}

type IdentityProvider interface {
	Enabled() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Identity, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Log      *slog.Logger
	Products ProductService
	Auth     AuthService
	Accounts AccountService
	Shipping ShippingQuoter
	Google   IdentityProvider
	DB       Pinger
	// ResendAfter is the advisory OTP resend cooldown shown to clients.
	ResendAfter time.Duration
}

type Handler struct {
	log         *slog.Logger
	products    ProductService
	auth        AuthService
	accounts    AccountService
	shipping    ShippingQuoter
	google      IdentityProvider
	db          Pinger
	resendAfter time.Duration
}

func New(d Deps) *Handler {
	resend := d.ResendAfter
	if resend <= 0 {
		resend = 60 * time.Second
	}
	return &Handler{
		log:         d.Log,
		products:    d.Products,
		auth:        d.Auth,
		accounts:    d.Accounts,
		shipping:    d.Shipping,
		google:      d.Google,
		db:          d.DB,
		resendAfter: resend,
	}
}

// Session keys.
const (
	sessUserID     = "user_id"
	sessOAuthState = "oauth_state"
	ctxCurrentUser = "currentUser"
)

type ViewData map[string]any

func withUser(c *gin.Context, data ViewData) ViewData {
	if data == nil {
		data = ViewData{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
		data["IsAdmin"] = u.IsAdmin()
	}
	return data
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxCurrentUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func sessionUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, _ := sessions.Default(c).Get(sessUserID).(string)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func startSession(c *gin.Context, u *models.User) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(sessUserID, u.ID.String())
	return sess.Save()
}

// opLog returns the handler logger tagged with op and the request id.
func (h *Handler) opLog(c *gin.Context, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", c.GetString(ctxRequestID)),
	)
}

// logFailure logs err at a level matching its kind. Client mistakes stay at
// debug, anything answered with 5xx is an error.
func logFailure(log *slog.Logger, err error) {
	if apperr.Status(err) >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
		return
	}
	log.Debug("request rejected", sl.Err(err))
}

// failJSON answers an API request with the public form of err.
func failJSON(c *gin.Context, log *slog.Logger, err error) {
	logFailure(log, err)
	c.JSON(apperr.Status(err), gin.H{"error": apperr.Public(err)})
}

// failHTML re-renders page with the public form of err.
func failHTML(c *gin.Context, log *slog.Logger, err error, page string, data ViewData) {
	logFailure(log, err)
	if data == nil {
		data = ViewData{}
	}
	data["Error"] = apperr.Public(err)
	c.HTML(apperr.Status(err), page, withUser(c, data))
}
