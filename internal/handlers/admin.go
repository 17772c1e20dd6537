package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gatherly/internal/ids"
	"gatherly/internal/models"
	"gatherly/internal/repository"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "50"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}
	if page < 1 {
		page = 1
	}

	users, err := h.users.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "page": page, "perPage": perPage})
}

func (h HandlerSet) AdminSetUserStatus(c *gin.Context) {
	var req struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	switch req.Status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusPending:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}

	targetID := c.Param("id")
	if err := h.users.UpdateStatus(c.Request.Context(), targetID, req.Status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// A suspended user should not keep riding existing sessions.
	if req.Status == models.UserStatusSuspended {
		if err := h.sessions.DeleteByUser(c.Request.Context(), targetID); err != nil {
			h.log.Warn().Err(err).Str("user_id", targetID).Msg("revoke sessions after suspend failed")
		}
	}

	c.Status(http.StatusNoContent)
}

// AdminDeleteEvent removes an event outright. Attendees are told first so the
// notification can still reference the title.
func (h HandlerSet) AdminDeleteEvent(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	eventID := c.Param("id")
	if err := h.eventService.Cancel(c.Request.Context(), actor, eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.Delete(c.Request.Context(), eventID); err != nil && !errors.Is(err, repository.ErrEventNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

type venueRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

func (h HandlerSet) AdminCreateVenue(c *gin.Context) {
	var req venueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	now := time.Now().UTC()
	venue := models.Venue{
		ID:        ids.New(),
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Capacity:  req.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.venues.Create(c.Request.Context(), venue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, venue)
}

func (h HandlerSet) AdminUpdateVenue(c *gin.Context) {
	var req venueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	venue, err := h.venues.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	venue.Name = req.Name
	venue.Address = req.Address
	venue.City = req.City
	venue.Capacity = req.Capacity
	venue.UpdatedAt = time.Now().UTC()

	if err := h.venues.Update(c.Request.Context(), venue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, venue)
}

func (h HandlerSet) AdminDeleteVenue(c *gin.Context) {
	if err := h.venues.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
