package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/ids"
	"gatherly/internal/models"
	"gatherly/internal/repository"
)

var (
	ErrEventFull      = errors.New("event is full")
	ErrEventCancelled = errors.New("event is cancelled")
	ErrNotOrganizer   = errors.New("not the event organizer")
)

type EventService struct {
	events        *repository.EventRepository
	venues        *repository.VenueRepository
	notifications *NotificationService
	log           zerolog.Logger
}

func NewEventService(
	events *repository.EventRepository,
	venues *repository.VenueRepository,
	notifications *NotificationService,
	log zerolog.Logger,
) *EventService {
	return &EventService{
		events:        events,
		venues:        venues,
		notifications: notifications,
		log:           log,
	}
}

type CreateEventInput struct {
	Title       string
	Description string
	VenueID     string
	StartsAt    time.Time
	EndsAt      time.Time
	TicketPrice int64
	Capacity    int
}

func (s *EventService) Create(ctx context.Context, organizer models.User, input CreateEventInput) (models.Event, error) {
	if input.Title == "" {
		return models.Event{}, fmt.Errorf("title required")
	}
	if input.EndsAt.Before(input.StartsAt) {
		return models.Event{}, fmt.Errorf("event ends before it starts")
	}

	event := models.Event{
		ID:          ids.New(),
		Title:       input.Title,
		Description: input.Description,
		OrganizerID: organizer.ID,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		TicketPrice: input.TicketPrice,
		Capacity:    input.Capacity,
		Status:      models.EventStatusPublished,
	}

	if input.VenueID != "" {
		venue, err := s.venues.GetByID(ctx, input.VenueID)
		if err != nil {
			return models.Event{}, fmt.Errorf("venue: %w", err)
		}
		event.VenueID = &venue.ID
		// An event never admits more people than its venue holds.
		if venue.Capacity > 0 && (event.Capacity == 0 || event.Capacity > venue.Capacity) {
			event.Capacity = venue.Capacity
		}
	}

	if err := s.events.Create(ctx, event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

type UpdateEventInput struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	TicketPrice *int64
	Status      *models.EventStatus
}

func (s *EventService) Update(ctx context.Context, actor models.User, eventID string, input UpdateEventInput) (models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if event.OrganizerID != actor.ID && actor.Role != models.UserRoleAdmin {
		return models.Event{}, ErrNotOrganizer
	}

	changed := false
	if input.Title != nil {
		event.Title = *input.Title
		changed = true
	}
	if input.Description != nil {
		event.Description = *input.Description
		changed = true
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
		changed = true
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
		changed = true
	}
	if input.TicketPrice != nil {
		event.TicketPrice = *input.TicketPrice
		changed = true
	}
	if input.Status != nil {
		event.Status = *input.Status
		changed = true
	}
	if !changed {
		return event, nil
	}

	if err := s.events.Update(ctx, event); err != nil {
		return models.Event{}, err
	}

	s.notifyAttendees(ctx, event, models.NotificationTypeUpdate,
		"Event updated", fmt.Sprintf("%q has changed, check the latest details.", event.Title))

	return event, nil
}

func (s *EventService) Get(ctx context.Context, id string) (models.Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *EventService) List(ctx context.Context, limit, offset int) ([]models.Event, error) {
	return s.events.List(ctx, limit, offset)
}

// Join adds the user to the event's attendee list. Free events approve
// immediately; paid events start in pending until the organizer approves.
func (s *EventService) Join(ctx context.Context, user models.User, eventID string) (models.EventAttendee, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return models.EventAttendee{}, err
	}
	if event.Status == models.EventStatusCancelled {
		return models.EventAttendee{}, ErrEventCancelled
	}

	if event.Capacity > 0 {
		count, err := s.events.CountAttendees(ctx, eventID)
		if err != nil {
			return models.EventAttendee{}, err
		}
		if count >= event.Capacity {
			return models.EventAttendee{}, ErrEventFull
		}
	}

	attendee := models.EventAttendee{
		EventID: eventID,
		UserID:  user.ID,
		Status:  models.AttendeeStatusPending,
	}
	if event.TicketPrice == 0 {
		attendee.Status = models.AttendeeStatusApproved
	}

	if err := s.events.UpsertAttendee(ctx, attendee); err != nil {
		return models.EventAttendee{}, err
	}

	if attendee.Status == models.AttendeeStatusApproved {
		s.notifications.Notify(ctx, user.ID, models.NotificationTypeApproval,
			"You're in", fmt.Sprintf("Your spot at %q is confirmed.", event.Title), &event.ID)
	} else {
		s.notifications.Notify(ctx, event.OrganizerID, models.NotificationTypeGeneral,
			"Join request", fmt.Sprintf("%s wants to join %q.", user.DisplayName(), event.Title), &event.ID)
	}

	return attendee, nil
}

func (s *EventService) Leave(ctx context.Context, user models.User, eventID string) error {
	err := s.events.DeleteAttendee(ctx, eventID, user.ID)
	if errors.Is(err, repository.ErrAttendeeNotFound) {
		return nil
	}
	return err
}

// Decide resolves a pending attendee: the organizer approves or declines,
// and the attendee is notified either way.
func (s *EventService) Decide(ctx context.Context, actor models.User, eventID, userID string, approve bool) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != actor.ID && actor.Role != models.UserRoleAdmin {
		return ErrNotOrganizer
	}

	attendee, err := s.events.GetAttendee(ctx, eventID, userID)
	if err != nil {
		return err
	}

	if approve {
		attendee.Status = models.AttendeeStatusApproved
	} else {
		attendee.Status = models.AttendeeStatusDeclined
	}
	if err := s.events.UpsertAttendee(ctx, attendee); err != nil {
		return err
	}

	if approve {
		s.notifications.Notify(ctx, userID, models.NotificationTypeApproval,
			"Request approved", fmt.Sprintf("You are confirmed for %q.", event.Title), &event.ID)
	} else {
		s.notifications.Notify(ctx, userID, models.NotificationTypeDecline,
			"Request declined", fmt.Sprintf("Your request for %q was declined.", event.Title), &event.ID)
	}
	return nil
}

func (s *EventService) Attendees(ctx context.Context, eventID string) ([]models.User, error) {
	return s.events.ListAttendees(ctx, eventID)
}

// Cancel marks the event cancelled and tells everyone on the list.
func (s *EventService) Cancel(ctx context.Context, actor models.User, eventID string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != actor.ID && actor.Role != models.UserRoleAdmin {
		return ErrNotOrganizer
	}

	event.Status = models.EventStatusCancelled
	if err := s.events.Update(ctx, event); err != nil {
		return err
	}

	s.notifyAttendees(ctx, event, models.NotificationTypeUpdate,
		"Event cancelled", fmt.Sprintf("%q has been cancelled.", event.Title))
	return nil
}

func (s *EventService) notifyAttendees(ctx context.Context, event models.Event, kind models.NotificationType, title, message string) {
	attendees, err := s.events.ListAttendees(ctx, event.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", event.ID).Msg("list attendees for notify failed")
		return
	}
	for _, attendee := range attendees {
		s.notifications.Notify(ctx, attendee.ID, kind, title, message, &event.ID)
	}
}
