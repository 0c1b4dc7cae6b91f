package feedback

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

type Feedback struct {
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type SubmitRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Service struct {
	db store.DocumentStore
}

func NewService(db store.DocumentStore) *Service {
	return &Service{db: db}
}

func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.Message == "" {
		return "", common.Validationf("Message is required")
	}

	entry := Feedback{
		Email:     req.Email,
		Phone:     req.Phone,
		Type:      req.Type,
		Message:   req.Message,
		Status:    "new",
		Timestamp: common.Now(),
	}
	if entry.Email == "" {
		entry.Email = "Not provided"
	}
	if entry.Phone == "" {
		entry.Phone = "Not provided"
	}
	if entry.Type == "" {
		entry.Type = "General Feedback"
	}
	if req.Email != "" {
		if uid, err := s.userIDForEmail(ctx, req.Email); err == nil && uid != "" {
			entry.UserID = uid
		}
	}

	feedbackID := uuid.NewString()
	if err := s.db.Set(ctx, "feedback/"+feedbackID, entry); err != nil {
		return "", fmt.Errorf("failed to save feedback: %w", err)
	}
	return feedbackID, nil
}

func (s *Service) List(ctx context.Context) (map[string]Feedback, error) {
	raw, err := s.db.Get(ctx, "feedback")
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	entries := make(map[string]Feedback)
	for id, child := range store.Children(raw) {
		var entry Feedback
		if err := store.Decode(child, &entry); err != nil {
			continue
		}
		entries[id] = entry
	}
	return entries, nil
}

func (s *Service) userIDForEmail(ctx context.Context, email string) (string, error) {
	users, err := s.db.Get(ctx, "users")
	if err != nil {
		return "", err
	}
	for uid, raw := range store.Children(users) {
		var user struct {
			Email string `json:"email"`
		}
		if err := store.Decode(raw, &user); err != nil {
			continue
		}
		if user.Email == email {
			return uid, nil
		}
	}
	return "", nil
}
