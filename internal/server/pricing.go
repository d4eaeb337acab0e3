package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JillVernus/claude-relay-service/internal/cache"
	apierrors "github.com/JillVernus/claude-relay-service/internal/errors"
	"github.com/JillVernus/claude-relay-service/internal/models"
	"github.com/JillVernus/claude-relay-service/internal/pricing"
)

// Pricing override admin handlers. Write paths surface failures to the
// caller; reads return null rather than erroring on a missing entry.

func (s *APIServer) handleGetPricing(c *gin.Context) {
	accountID := c.Param("accountId")

	overrides := s.pricingStore.GetPricing(c.Request.Context(), accountID)
	if overrides == nil {
		s.respondError(c, apierrors.ErrPricingNotFoundError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pricing": overrides,
	})
}

func (s *APIServer) handleSetPricing(c *gin.Context) {
	accountID := c.Param("accountId")

	var overrides models.AccountPricing
	if err := c.ShouldBindJSON(&overrides); err != nil {
		s.respondError(c, apierrors.NewInvalidRequestError("pricing must be a model-to-multipliers object"))
		return
	}

	if err := s.pricingStore.SetPricing(c.Request.Context(), accountID, overrides); err != nil {
		s.respondPricingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) handleDeletePricing(c *gin.Context) {
	accountID := c.Param("accountId")

	if err := s.pricingStore.DeletePricing(c.Request.Context(), accountID); err != nil {
		s.respondPricingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) handleSetModelPricing(c *gin.Context) {
	accountID := c.Param("accountId")
	model := c.Param("model")

	var multipliers models.ModelMultipliers
	if err := c.ShouldBindJSON(&multipliers); err != nil {
		s.respondError(c, apierrors.NewInvalidRequestError("multipliers must be a key-to-number object"))
		return
	}

	if err := s.pricingStore.SetModelPricing(c.Request.Context(), accountID, model, multipliers); err != nil {
		s.respondPricingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) handleDeleteModelPricing(c *gin.Context) {
	accountID := c.Param("accountId")
	model := c.Param("model")

	removed, err := s.pricingStore.DeleteModelPricing(c.Request.Context(), accountID, model)
	if err != nil {
		s.respondPricingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
	})
}

func (s *APIServer) respondPricingError(c *gin.Context, err error) {
	var validationErr *pricing.ValidationError
	switch {
	case errors.As(err, &validationErr):
		s.respondError(c, apierrors.NewValidationError(validationErr.Message))
	case errors.Is(err, cache.ErrUnavailable):
		s.respondError(c, apierrors.ErrStoreUnavailableError)
	default:
		s.respondError(c, apierrors.ErrInternalServerError)
	}
}
