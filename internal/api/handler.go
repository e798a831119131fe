package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"loyalty-service/internal/platform"
	"loyalty-service/internal/service"
	"loyalty-service/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	authService        *service.AuthService
	loyaltyService     *service.LoyaltyService
	statsService       *service.StatsService
	leaderboardService *service.LeaderboardService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *service.AuthService,
	loyaltyService *service.LoyaltyService,
	statsService *service.StatsService,
	leaderboardService *service.LeaderboardService,
) *Handler {
	return &Handler{
		authService:        authService,
		loyaltyService:     loyaltyService,
		statsService:       statsService,
		leaderboardService: leaderboardService,
	}
}

// SetupRoutes sets up HTTP routes. The per-platform endpoints are
// registered from the platform table, one literal path each.
func (h *Handler) SetupRoutes(router *gin.Engine, allowedOrigins []string) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/login", h.login)

	merchant := router.Group("/merchant")
	for _, p := range platform.All() {
		name := p.Name
		merchant.GET(fmt.Sprintf("/%s-loyalty", name), func(c *gin.Context) {
			h.getLoyalty(c, name)
		})
		if name != platform.Grand {
			merchant.GET(fmt.Sprintf("/%s-loyalty-history", name), func(c *gin.Context) {
				h.getLoyaltyHistory(c, name)
			})
		}
	}

	user := router.Group("/user")
	user.GET("/top-grand-loyalty", h.getTopGrandLoyalty)
	for _, p := range platform.Integrations() {
		name := p.Name
		user.GET(fmt.Sprintf("/%s-high-loyalty-churn", name), func(c *gin.Context) {
			h.getHighLoyaltyChurn(c, name)
		})
		user.GET(fmt.Sprintf("/%s-average-loyalty-high-churn", name), func(c *gin.Context) {
			h.getAverageLoyaltyHighChurn(c, name)
		})
		user.GET(fmt.Sprintf("/%s-top-merchants", name), func(c *gin.Context) {
			h.getTopMerchants(c, name)
		})
		user.POST(fmt.Sprintf("/update-%s-data", name), func(c *gin.Context) {
			h.updateStats(c, name)
		})
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     string `json:"type"`
}

// login handles credential checks for users and merchants
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing fields"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, req.Type)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing fields"})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login Success",
		"type":    result.Type,
		"data": gin.H{
			"id":    result.ID,
			"email": result.Email,
			"name":  result.Name,
		},
	})
}

// getLoyalty resolves a merchant's score for one platform
func (h *Handler) getLoyalty(c *gin.Context, platformName string) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email is required"})
		return
	}

	resolved, err := h.loyaltyService.Resolve(c.Request.Context(), email, platformName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{
		"success":                      true,
		"source":                       resolved.Source,
		"merchantId":                   resolved.MerchantID,
		resolved.Platform.ScoreColumn: resolved.Score,
	}
	if resolved.Platform.MetricIsBadge {
		body[resolved.Platform.MetricColumn] = resolved.Badge
	} else {
		body[resolved.Platform.MetricColumn] = resolved.ChurnRate
	}

	c.JSON(http.StatusOK, body)
}

// getLoyaltyHistory returns a merchant's score trend for one platform
func (h *Handler) getLoyaltyHistory(c *gin.Context, platformName string) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email is required"})
		return
	}

	merchantID, entries, err := h.loyaltyService.History(c.Request.Context(), email, platformName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	p, _ := platform.Get(platformName)
	history := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		history = append(history, gin.H{
			"merchant_id": e.MerchantID,
			"from_date":   e.FromDate.Format("2006-01-02"),
			"till_date":   e.TillDate.Format("2006-01-02"),
			p.ScoreColumn: e.Score,
			"month":       e.Month,
			"year":        e.Year,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"merchantId": merchantID,
		"history":    history,
	})
}

// getTopGrandLoyalty returns the grand score leaderboard
func (h *Handler) getTopGrandLoyalty(c *gin.Context) {
	rows, err := h.leaderboardService.TopGrand(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

// getHighLoyaltyChurn returns a platform's top merchants by score
func (h *Handler) getHighLoyaltyChurn(c *gin.Context, platformName string) {
	rows, err := h.leaderboardService.HighLoyaltyChurn(c.Request.Context(), platformName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

// getAverageLoyaltyHighChurn returns a platform's at-risk merchants
func (h *Handler) getAverageLoyaltyHighChurn(c *gin.Context, platformName string) {
	rows, err := h.leaderboardService.AverageLoyaltyHighChurn(c.Request.Context(), platformName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

// getTopMerchants returns a platform's top merchants with stats totals
func (h *Handler) getTopMerchants(c *gin.Context, platformName string) {
	rows, err := h.leaderboardService.TopMerchants(c.Request.Context(), platformName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}

// updateStats merges a stats submission into a platform's period row
func (h *Handler) updateStats(c *gin.Context, platformName string) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	sub := &service.StatsSubmission{
		MerchantID: stringField(body, "merchant_id"),
		FromDate:   stringField(body, "from_date"),
		TillDate:   stringField(body, "till_date"),
		Fields:     body,
	}
	delete(body, "merchant_id")
	delete(body, "from_date")
	delete(body, "till_date")

	inserted, err := h.statsService.Upsert(c.Request.Context(), platformName, sub)
	if err != nil {
		h.respondError(c, err)
		return
	}

	action := "updated"
	if inserted {
		action = "inserted"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s data %s successfully", titleCase(platformName), action),
	})
}

// respondError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validationMessage(err)})
	case errors.Is(err, service.ErrAuth):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Merchant not found."})
	case errors.Is(err, service.ErrUpstream):
		util.GetLogger().Error("Upstream scoring failure: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	default:
		util.GetLogger().Error("Request failed: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}

// validationMessage strips the taxonomy prefix so the caller sees only the
// field-level detail.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := service.ErrValidation.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return "Invalid request"
}

func stringField(body map[string]interface{}, key string) string {
	v, ok := body[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
