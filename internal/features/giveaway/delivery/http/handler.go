package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/giveaway/models"
	giveawayservice "brainrot-market-backend/internal/features/giveaway/service"
	"brainrot-market-backend/internal/utils/parse"
)

type GiveawayHandler struct {
	service giveawayservice.GiveawayService
}

func NewGiveawayHandler(service giveawayservice.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{service: service}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.GET("", h.list)
		giveaways.POST("", h.create)
		giveaways.GET("/:id", h.getByID)
		giveaways.POST("/:id/end", h.end)
		giveaways.POST("/:id/rig", h.endWithWinner)
		giveaways.POST("/:id/reroll", h.reroll)
		giveaways.DELETE("/:id", h.delete)
	}
}

type createRequest struct {
	ServerID     string `json:"server_id" binding:"required"`
	ChannelID    string `json:"channel_id" binding:"required"`
	MessageID    string `json:"message_id" binding:"required"`
	Prize        string `json:"prize" binding:"required,min=1,max=200"`
	WinnersCount int    `json:"winners_count" binding:"required,min=1"`
	Duration     string `json:"duration" binding:"required"`
}

// @Summary List giveaways for a server
// @Tags giveaways
// @Produce json
// @Security AdminToken
// @Param server_id query string true "Server ID"
// @Param active query bool false "Only unended giveaways"
// @Success 200 {array} models.Giveaway
// @Router /giveaways [get]
func (h *GiveawayHandler) list(c *gin.Context) {
	serverID := c.Query("server_id")
	if serverID == "" {
		c.Error(apperrors.NewValidationError("server_id", "query parameter is required"))
		return
	}
	activeOnly := c.Query("active") == "true"

	giveaways, err := h.service.GetAllForServer(c.Request.Context(), serverID, activeOnly)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, giveaways)
}

// @Summary Create a giveaway
// @Tags giveaways
// @Accept json
// @Produce json
// @Security AdminToken
// @Param input body createRequest true "Giveaway parameters"
// @Success 201 {object} models.Giveaway
// @Router /giveaways [post]
func (h *GiveawayHandler) create(c *gin.Context) {
	var input createRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	duration, err := parse.Duration(input.Duration)
	if err != nil {
		c.Error(apperrors.NewValidationError("duration", err.Error()))
		return
	}
	if duration < models.MinDuration {
		c.Error(apperrors.NewValidationError("duration", "must be at least one minute"))
		return
	}

	giveaway, err := h.service.Create(c.Request.Context(), &models.GiveawayCreate{
		ServerID:     input.ServerID,
		ChannelID:    input.ChannelID,
		MessageID:    input.MessageID,
		Prize:        input.Prize,
		WinnersCount: input.WinnersCount,
		Duration:     duration,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, giveaway)
}

// @Summary Get a giveaway
// @Tags giveaways
// @Produce json
// @Security AdminToken
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.Giveaway
// @Router /giveaways/{id} [get]
func (h *GiveawayHandler) getByID(c *gin.Context) {
	giveaway, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, giveaway)
}

// @Summary End a giveaway now
// @Tags giveaways
// @Produce json
// @Security AdminToken
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.GiveawayResult
// @Router /giveaways/{id}/end [post]
func (h *GiveawayHandler) end(c *gin.Context) {
	result, err := h.service.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type rigRequest struct {
	WinnerID string `json:"winner_id" binding:"required"`
}

// @Summary End a giveaway with a forced winner
// @Tags giveaways
// @Accept json
// @Produce json
// @Security AdminToken
// @Param id path string true "Giveaway ID"
// @Param input body rigRequest true "Forced winner"
// @Success 200 {object} models.GiveawayResult
// @Router /giveaways/{id}/rig [post]
func (h *GiveawayHandler) endWithWinner(c *gin.Context) {
	var input rigRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.service.EndWithWinner(c.Request.Context(), c.Param("id"), input.WinnerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Reroll winners of an ended giveaway
// @Tags giveaways
// @Produce json
// @Security AdminToken
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.GiveawayResult
// @Router /giveaways/{id}/reroll [post]
func (h *GiveawayHandler) reroll(c *gin.Context) {
	result, err := h.service.Reroll(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Delete a giveaway
// @Tags giveaways
// @Produce json
// @Security AdminToken
// @Param id path string true "Giveaway ID"
// @Success 200 {object} gin.H
// @Router /giveaways/{id} [delete]
func (h *GiveawayHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "timestamp": time.Now().UTC()})
}
