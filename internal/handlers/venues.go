package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatherly/internal/repository"
)

func (h HandlerSet) ListVenues(c *gin.Context) {
	venues, err := h.venues.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"venues": venues})
}

func (h HandlerSet) GetVenue(c *gin.Context) {
	venue, err := h.venues.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, venue)
}
