package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/service"
)

type createEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	VenueID     string    `json:"venueId"`
	StartsAt    time.Time `json:"startsAt" binding:"required"`
	EndsAt      time.Time `json:"endsAt" binding:"required"`
	TicketPrice int64     `json:"ticketPrice"`
	Capacity    int       `json:"capacity"`
}

func (h HandlerSet) CreateEvent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), user, service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		VenueID:     req.VenueID,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		TicketPrice: req.TicketPrice,
		Capacity:    req.Capacity,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (h HandlerSet) ListEvents(c *gin.Context) {
	limit := 50
	offset := 0
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	events, err := h.eventService.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h HandlerSet) GetEvent(c *gin.Context) {
	event, err := h.eventService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

type updateEventRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	StartsAt    *time.Time          `json:"startsAt"`
	EndsAt      *time.Time          `json:"endsAt"`
	TicketPrice *int64              `json:"ticketPrice"`
	Status      *models.EventStatus `json:"status"`
}

func (h HandlerSet) UpdateEvent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), user, c.Param("id"), service.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		TicketPrice: req.TicketPrice,
		Status:      req.Status,
	})
	if err != nil {
		writeEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h HandlerSet) CancelEvent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.eventService.Cancel(c.Request.Context(), user, c.Param("id")); err != nil {
		writeEventError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) JoinEvent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attendee, err := h.eventService.Join(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventFull):
			c.JSON(http.StatusConflict, gin.H{"error": "event_full"})
		case errors.Is(err, service.ErrEventCancelled):
			c.JSON(http.StatusConflict, gin.H{"error": "event_cancelled"})
		case errors.Is(err, repository.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendee": attendee})
}

func (h HandlerSet) LeaveEvent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.eventService.Leave(c.Request.Context(), user, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ListAttendees(c *gin.Context) {
	attendees, err := h.eventService.Attendees(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendees": attendees})
}

type decisionRequest struct {
	Approve bool `json:"approve"`
}

func (h HandlerSet) DecideAttendee(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.eventService.Decide(c.Request.Context(), user, c.Param("id"), c.Param("userId"), req.Approve)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attendee_not_found"})
			return
		}
		writeEventError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) UploadEventCover(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	event, err := h.mediaService.SetEventCover(c.Request.Context(), user, c.Param("id"), file, header)
	if err != nil {
		h.log.Error().Err(err).Str("event_id", c.Param("id")).Msg("cover upload failed")
		writeEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

func writeEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event_not_found"})
	case errors.Is(err, service.ErrNotOrganizer):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_organizer"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
