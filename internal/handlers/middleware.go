package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"secondhand/internal/apperr"
	"secondhand/internal/lib/sl"
)

const (
	ctxRequestID    = "requestID"
	headerRequestID = "X-Request-ID"
)

// requestLogger assigns a request id and logs every finished request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ctxRequestID, reqID)
		c.Header(headerRequestID, reqID)

		c.Next()

		log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", reqID),
			slog.String("remote_addr", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// Metrics holds the HTTP collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secondhand_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secondhand_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Unmatched paths share one label.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// mustLogin loads the session user. Pages redirect to the login form, APIs
// answer 401.
func (h *Handler) mustLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionUserID(c)
		if !ok {
			h.denyAnonymous(c)
			return
		}
		u, err := h.auth.User(c.Request.Context(), id)
		if err != nil {
			if apperr.KindOf(err) != apperr.KindAuthentication {
				h.log.Error("failed to load session user", slog.String("user_id", id.String()), sl.Err(err))
			}
			h.denyAnonymous(c)
			return
		}
		c.Set(ctxCurrentUser, u)
		c.Next()
	}
}

// mustAdmin runs after mustLogin.
func (h *Handler) mustAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil || !u.IsAdmin() {
			if isAPI(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
				return
			}
			c.HTML(http.StatusForbidden, "login.tmpl", withUser(c, ViewData{"Error": "Unauthorized"}))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) denyAnonymous(c *gin.Context) {
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}
