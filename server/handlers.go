package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"airbnb-reconciler/models"
	"airbnb-reconciler/services"
	"airbnb-reconciler/storage"
)

type syncRequest struct {
	PropertyID int64   `json:"propertyId"`
	AirbnbID   *string `json:"airbnbId"`
	Confirm    bool    `json:"confirm"`
}

type pendingResponse struct {
	Error       string                           `json:"error"`
	Instruction models.ReconciliationInstruction `json:"instruction"`
	Statement   string                           `json:"statement"`
}

func (s *Server) listCandidates(c *gin.Context) {
	listings, err := s.candidates.ListCandidates(c.Request.Context())
	if err != nil {
		s.logger.Error("[api] List candidates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

func (s *Server) listProperties(c *gin.Context) {
	props, err := s.catalog.ListProperties(c.Request.Context())
	if err != nil {
		s.logger.Error("[api] List properties: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch properties"})
		return
	}
	if props == nil {
		props = []*models.InternalProperty{}
	}
	c.JSON(http.StatusOK, gin.H{"properties": props})
}

// sync links or unlinks one property. A null or empty airbnbId unlinks.
// Without confirm the instruction is only previewed.
func (s *Server) sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.PropertyID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Property ID is required"})
		return
	}

	ctx := c.Request.Context()
	prop, err := s.catalog.GetProperty(ctx, req.PropertyID)
	if errors.Is(err, storage.ErrPropertyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		s.logger.Error("[api] Get property %d: %v", req.PropertyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync with Airbnb"})
		return
	}

	var instr models.ReconciliationInstruction
	if req.AirbnbID == nil || strings.TrimSpace(*req.AirbnbID) == "" {
		instr, err = s.reconciler.Unlink(prop)
	} else {
		instr, err = s.reconciler.Link(prop, *req.AirbnbID)
	}
	if errors.Is(err, services.ErrNotLinked) {
		c.JSON(http.StatusConflict, gin.H{"error": "Property is not linked to an Airbnb listing"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Confirm {
		c.JSON(http.StatusPreconditionRequired, pendingResponse{
			Error:       "Confirmation required",
			Instruction: instr,
			Statement:   services.Statement(instr),
		})
		return
	}

	updated, err := s.catalog.ApplyInstruction(ctx, instr)
	if err != nil {
		s.logger.Error("[api] Apply %s to property %d: %v", instr.Action, instr.InternalPropertyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync with Airbnb"})
		return
	}

	operator := 0
	if claims := Claims(c); claims != nil {
		operator = claims.ID
	}
	s.logger.Info("[api] Operator %d applied %s to property %d", operator, instr.Action, updated.ID)

	message := "Property successfully linked to Airbnb listing"
	if instr.Action == models.ActionUnlink {
		message = "Property unlinked from Airbnb listing"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "property": updated, "message": message})
}
