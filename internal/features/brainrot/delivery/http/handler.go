package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "brainrot-market-backend/internal/common/errors"
	"brainrot-market-backend/internal/features/brainrot/models"
	brainrotservice "brainrot-market-backend/internal/features/brainrot/service"
	pricingservice "brainrot-market-backend/internal/features/pricing/service"
)

type BrainrotHandler struct {
	service brainrotservice.BrainrotService
	oracle  pricingservice.PriceOracle
}

func NewBrainrotHandler(service brainrotservice.BrainrotService, oracle pricingservice.PriceOracle) *BrainrotHandler {
	return &BrainrotHandler{service: service, oracle: oracle}
}

func (h *BrainrotHandler) RegisterRoutes(router *gin.RouterGroup) {
	brainrots := router.Group("/brainrots")
	{
		brainrots.GET("", h.list)
		brainrots.POST("", h.create)
		brainrots.GET("/:id", h.getByID)
		brainrots.PUT("/:id", h.update)
		brainrots.DELETE("/:id", h.delete)
		brainrots.GET("/:id/price", h.price)
	}
}

// @Summary List brainrots for a server
// @Tags brainrots
// @Produce json
// @Security AdminToken
// @Param server_id query string true "Server ID"
// @Param rarity query string false "Rarity filter"
// @Param mutation query string false "Mutation filter"
// @Param name query string false "Name substring filter"
// @Success 200 {array} models.Brainrot
// @Router /brainrots [get]
func (h *BrainrotHandler) list(c *gin.Context) {
	serverID := c.Query("server_id")
	if serverID == "" {
		c.Error(apperrors.NewValidationError("server_id", "query parameter is required"))
		return
	}

	filter := models.ListFilter{
		Rarity:   models.Rarity(c.Query("rarity")),
		Mutation: models.Mutation(c.Query("mutation")),
		Name:     c.Query("name"),
	}

	brainrots, err := h.service.ListForServer(c.Request.Context(), serverID, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, brainrots)
}

// @Summary Register a brainrot
// @Tags brainrots
// @Accept json
// @Produce json
// @Security AdminToken
// @Param input body models.BrainrotCreate true "Item fields"
// @Success 201 {object} models.Brainrot
// @Router /brainrots [post]
func (h *BrainrotHandler) create(c *gin.Context) {
	var input models.BrainrotCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	brainrot, merged, err := h.service.CreateOrMerge(c.Request.Context(), &input)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	c.JSON(status, brainrot)
}

// @Summary Get a brainrot
// @Tags brainrots
// @Produce json
// @Security AdminToken
// @Param id path string true "Brainrot ID"
// @Success 200 {object} models.Brainrot
// @Router /brainrots/{id} [get]
func (h *BrainrotHandler) getByID(c *gin.Context) {
	brainrot, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, brainrot)
}

// @Summary Update price, demand or traits
// @Tags brainrots
// @Accept json
// @Produce json
// @Security AdminToken
// @Param id path string true "Brainrot ID"
// @Param input body models.BrainrotUpdate true "Fields to change"
// @Success 200 {object} models.Brainrot
// @Router /brainrots/{id} [put]
func (h *BrainrotHandler) update(c *gin.Context) {
	var input models.BrainrotUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	brainrot, err := h.service.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, brainrot)
}

// @Summary Delete a brainrot
// @Tags brainrots
// @Produce json
// @Security AdminToken
// @Param id path string true "Brainrot ID"
// @Success 200 {object} gin.H
// @Router /brainrots/{id} [delete]
func (h *BrainrotHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// @Summary Quote an item price in cryptocurrency
// @Tags brainrots
// @Produce json
// @Security AdminToken
// @Param id path string true "Brainrot ID"
// @Param coin query string true "Coin symbol (btc, eth, ...)"
// @Success 200 {object} gin.H
// @Router /brainrots/{id}/price [get]
func (h *BrainrotHandler) price(c *gin.Context) {
	coin := c.Query("coin")
	if coin == "" {
		c.Error(apperrors.NewValidationError("coin", "query parameter is required"))
		return
	}

	brainrot, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	amount, err := h.oracle.ConvertUSD(c.Request.Context(), brainrot.PriceUSD, coin)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        brainrot.ID,
		"name":      brainrot.Name,
		"price_usd": brainrot.PriceUSD,
		"coin":      coin,
		"amount":    amount,
	})
}
