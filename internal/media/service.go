package media

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

// ObjectStore is the slice of the bucket API the photo service needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)
	DeleteObject(ctx context.Context, key string) error
}

type Service struct {
	objects ObjectStore
	db      store.DocumentStore

	// cache is shared across handler goroutines.
	mu    sync.Mutex
	cache map[string]cachedImage
}

type cachedImage struct {
	data        []byte
	contentType string
	cachedAt    time.Time
}

func NewService(objects ObjectStore, db store.DocumentStore) *Service {
	return &Service{
		objects: objects,
		db:      db,
		cache:   make(map[string]cachedImage),
	}
}

// UploadGrowPhoto stores the image and records its key on the grow.
func (s *Service) UploadGrowPhoto(ctx context.Context, growID string, data []byte, contentType string) (string, error) {
	raw, err := s.db.Get(ctx, "grows/"+growID)
	if err != nil {
		return "", fmt.Errorf("load grow: %w", err)
	}
	if raw == nil {
		return "", common.NotFoundf("Grow not found")
	}

	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := fmt.Sprintf("grows/%s/%s.jpg", growID, uuid.NewString())
	if err := s.objects.PutObject(ctx, key, data, contentType); err != nil {
		return "", common.Upstreamf("upload photo: %v", err)
	}

	err = s.db.Update(ctx, "grows/"+growID, map[string]any{
		"photo_key":        key,
		"photo_updated_at": common.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("record photo key: %w", err)
	}

	s.invalidate(growID)
	return key, nil
}

// GrowPhoto returns the latest photo bytes for a grow (30 minute cache).
func (s *Service) GrowPhoto(ctx context.Context, growID string) ([]byte, string, error) {
	if data, contentType, ok := s.cachedPhoto(growID); ok {
		return data, contentType, nil
	}

	raw, err := s.db.Get(ctx, "grows/"+growID)
	if err != nil {
		return nil, "", fmt.Errorf("load grow: %w", err)
	}
	if raw == nil {
		return nil, "", common.NotFoundf("Grow not found")
	}

	var grow struct {
		PhotoKey string `json:"photo_key"`
	}
	if err := store.Decode(raw, &grow); err != nil {
		return nil, "", fmt.Errorf("decode grow: %w", err)
	}
	if grow.PhotoKey == "" {
		return nil, "", common.NotFoundf("No photo uploaded for this grow")
	}

	body, contentType, err := s.objects.GetObject(ctx, grow.PhotoKey)
	if err != nil {
		return nil, "", common.Upstreamf("fetch photo: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read photo data: %w", err)
	}

	s.mu.Lock()
	s.cache[growID] = cachedImage{
		data:        data,
		contentType: contentType,
		cachedAt:    time.Now(),
	}
	s.mu.Unlock()
	return data, contentType, nil
}

func (s *Service) cachedPhoto(growID string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.cache[growID]
	if !ok {
		return nil, "", false
	}
	if time.Since(cached.cachedAt) >= 30*time.Minute {
		delete(s.cache, growID)
		return nil, "", false
	}
	return cached.data, cached.contentType, true
}

func (s *Service) invalidate(growID string) {
	s.mu.Lock()
	delete(s.cache, growID)
	s.mu.Unlock()
}

// DeleteGrowPhoto removes the stored photo and clears the grow record.
func (s *Service) DeleteGrowPhoto(ctx context.Context, growID string) error {
	raw, err := s.db.Get(ctx, "grows/"+growID)
	if err != nil {
		return fmt.Errorf("load grow: %w", err)
	}
	if raw == nil {
		return common.NotFoundf("Grow not found")
	}

	var grow struct {
		PhotoKey string `json:"photo_key"`
	}
	if err := store.Decode(raw, &grow); err != nil {
		return fmt.Errorf("decode grow: %w", err)
	}
	if grow.PhotoKey == "" {
		return common.NotFoundf("No photo uploaded for this grow")
	}

	if err := s.objects.DeleteObject(ctx, grow.PhotoKey); err != nil {
		return common.Upstreamf("delete photo: %v", err)
	}
	err = s.db.Update(ctx, "grows/"+growID, map[string]any{
		"photo_key": nil,
	})
	if err != nil {
		return fmt.Errorf("clear photo key: %w", err)
	}

	s.invalidate(growID)
	return nil
}

// CleanupCache drops expired cache entries.
func (s *Service) CleanupCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for growID, cached := range s.cache {
		if now.Sub(cached.cachedAt) > 30*time.Minute {
			delete(s.cache, growID)
		}
	}
}
