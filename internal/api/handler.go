package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/krishmajumdar12/Leaps-sub000/internal/models"
	"github.com/krishmajumdar12/Leaps-sub000/internal/service"
)

// Handler holds the API handlers
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	// Public routes
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(AuthMiddleware())
	{
		api.POST("/trips", h.CreateTrip)
		api.GET("/trips", h.ListTrips)
		api.GET("/trips/:id", h.GetTrip)
		api.PUT("/trips/:id", h.UpdateTrip)
		api.DELETE("/trips/:id", h.DeleteTrip)
		api.POST("/trips/add-member", h.AddMember)
		api.POST("/trips/cancel-vote", h.CastCancellationVote)

		api.POST("/trips/add-item", h.AddItem)
		api.GET("/trips/:id/items", h.ListItems)
		api.DELETE("/trips/:id/items/:itemId", h.RemoveItem)
		api.PUT("/trips/:id/items/:itemId/price", h.UpdateItemPrice)
		api.POST("/trips/items/:tripId/vote", h.CastVote)

		api.GET("/trips/:id/cost-summary", h.GetCostSummary)
		api.PUT("/trips/:id/cost-ratios", h.UpdateCostRatios)

		api.GET("/trips/:id/messages", h.GetChatHistory)

		api.GET("/notifications", h.ListNotifications)
		api.GET("/notifications/count", h.CountUnreadNotifications)
		api.PUT("/notifications/read/:id", h.MarkNotificationRead)
		api.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
		api.DELETE("/notifications/:id", h.DeleteNotification)
		api.GET("/notifications/preferences", h.GetNotificationPreferences)
		api.PUT("/notifications/preferences", h.UpdateNotificationPreferences)
	}
}

// userID extracts the authenticated user id set by AuthMiddleware.
func userID(c *gin.Context) string {
	return c.MustGet("userId").(string)
}

// respondError maps service errors onto the API's error taxonomy.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "BAD_REQUEST", Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "UNAUTHORIZED", Message: "Invalid email or password",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "FORBIDDEN", Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "CONFLICT", Message: err.Error(),
		})
	default:
		slog.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL", Message: "Something went wrong",
		})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status: "error", Code: "BAD_REQUEST", Message: err.Error(),
	})
}

// Auth handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Trip handlers
func (h *Handler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CreateTrip(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListTrips(c *gin.Context) {
	resp, err := h.svc.ListTrips(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetTrip(c *gin.Context) {
	resp, err := h.svc.GetTrip(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateTrip(c *gin.Context) {
	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.UpdateTrip(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteTrip(c *gin.Context) {
	if err := h.svc.DeleteTrip(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) AddMember(c *gin.Context) {
	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.AddMember(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) CastCancellationVote(c *gin.Context) {
	var req models.CancelVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CastCancellationVote(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Item handlers
func (h *Handler) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.AddItem(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListItems(c *gin.Context) {
	resp, err := h.svc.ListItems(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	err := h.svc.RemoveItem(c.Request.Context(), userID(c), c.Param("id"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) UpdateItemPrice(c *gin.Context) {
	var req models.UpdateItemPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.svc.UpdateItemPrice(c.Request.Context(), userID(c), c.Param("id"), c.Param("itemId"), req.Price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) CastVote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CastVote(c.Request.Context(), userID(c), c.Param("tripId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Cost handlers
func (h *Handler) GetCostSummary(c *gin.Context) {
	resp, err := h.svc.GetCostSummary(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateCostRatios(c *gin.Context) {
	var req models.UpdateCostRatiosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.svc.UpdateCostRatios(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Chat handlers
func (h *Handler) GetChatHistory(c *gin.Context) {
	resp, err := h.svc.GetChatHistory(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Notification handlers
func (h *Handler) ListNotifications(c *gin.Context) {
	resp, err := h.svc.ListNotifications(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CountUnreadNotifications(c *gin.Context) {
	resp, err := h.svc.CountUnreadNotifications(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	resp, err := h.svc.MarkNotificationRead(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	resp, err := h.svc.MarkAllNotificationsRead(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	resp, err := h.svc.DeleteNotification(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetNotificationPreferences(c *gin.Context) {
	resp, err := h.svc.GetNotificationPreferences(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateNotificationPreferences(c *gin.Context) {
	var req models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.UpdateNotificationPreferences(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
