package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/ids"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/storage"
)

const maxUploadBytes = 5 << 20 // 5 MiB

var ErrUnsupportedImage = errors.New("unsupported image type")

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// MediaService stores profile pictures and event cover images in the object
// store and records the resulting URL on the owning entity.
type MediaService struct {
	users  *repository.UserRepository
	events *repository.EventRepository
	store  *storage.ObjectStore
	log    zerolog.Logger
}

func NewMediaService(
	users *repository.UserRepository,
	events *repository.EventRepository,
	store *storage.ObjectStore,
	log zerolog.Logger,
) *MediaService {
	return &MediaService{
		users:  users,
		events: events,
		store:  store,
		log:    log,
	}
}

// SetAvatar uploads a new profile picture and returns the updated user.
func (s *MediaService) SetAvatar(ctx context.Context, user models.User, file multipart.File, header *multipart.FileHeader) (models.User, error) {
	data, contentType, ext, err := readImage(file, header)
	if err != nil {
		return models.User{}, err
	}

	objectKey := buildObjectKey("avatars", user.ID, ext)
	if err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return models.User{}, err
	}

	url := s.store.PublicURL(objectKey)
	user.AvatarURL = &url
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SetEventCover uploads a cover image for an event the actor organizes.
func (s *MediaService) SetEventCover(ctx context.Context, actor models.User, eventID string, file multipart.File, header *multipart.FileHeader) (models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return models.Event{}, err
	}
	if event.OrganizerID != actor.ID && actor.Role != models.UserRoleAdmin {
		return models.Event{}, ErrNotOrganizer
	}

	data, contentType, ext, err := readImage(file, header)
	if err != nil {
		return models.Event{}, err
	}

	objectKey := buildObjectKey("covers", event.ID, ext)
	if err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return models.Event{}, err
	}

	url := s.store.PublicURL(objectKey)
	event.CoverURL = &url
	if err := s.events.Update(ctx, event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

func readImage(file multipart.File, header *multipart.FileHeader) (data []byte, contentType, ext string, err error) {
	if file == nil || header == nil {
		return nil, "", "", errors.New("invalid file payload")
	}
	if header.Size > maxUploadBytes {
		return nil, "", "", fmt.Errorf("file too large: %d bytes", header.Size)
	}

	data, err = io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, "", "", errors.New("empty file")
	}
	if len(data) > maxUploadBytes {
		return nil, "", "", errors.New("file too large")
	}

	// Trust the bytes, not the declared Content-Type header.
	contentType = http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return data, contentType, ext, nil
}

func buildObjectKey(prefix, ownerID, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(prefix, datePrefix, fmt.Sprintf("%s-%s.%s", ownerID, ids.New(), ext))
}
