package auth

import (
	"context"
	"fmt"
	"strings"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

// UserProfile is the stored user record, separate from provider credentials.
type UserProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

type Service struct {
	db       store.DocumentStore
	provider IdentityProvider
}

func NewService(db store.DocumentStore, provider IdentityProvider) *Service {
	return &Service{db: db, provider: provider}
}

func userPath(uid string) string {
	return "users/" + uid
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// Register creates the provider account, the user record and the initial
// onboarding flags.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if req.Email == "" || req.Password == "" {
		return "", common.Validationf("email and password are required")
	}

	identity, err := s.provider.SignUp(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return "", err
	}

	// Phone numbers are stored in PH international format.
	phone := ""
	if req.Phone != "" {
		phone = "+63" + req.Phone
	}

	profile := UserProfile{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Phone:    phone,
	}
	encoded, err := store.Encode(profile)
	if err != nil {
		return "", fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.db.Set(ctx, userPath(identity.UID), encoded); err != nil {
		return "", fmt.Errorf("failed to save user: %w", err)
	}

	err = s.db.Set(ctx, userPath(identity.UID)+"/onboardingStatus", map[string]any{
		"deviceAdded":    false,
		"profileCreated": false,
		"growAdded":      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to initialize onboarding status: %w", err)
	}
	return identity.UID, nil
}

// Login authenticates by email or username.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, string, *UserProfile, error) {
	if identifier == "" || password == "" {
		return "", "", nil, common.Validationf("identifier and password are required")
	}

	email := identifier
	if !strings.Contains(identifier, "@") {
		resolved, err := s.emailForUsername(ctx, identifier)
		if err != nil {
			return "", "", nil, err
		}
		email = resolved
	}

	identity, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return "", "", nil, common.Validationf("Invalid credentials")
	}

	profile, err := s.Profile(ctx, identity.UID)
	if err != nil {
		return "", "", nil, err
	}
	return identity.IDToken, identity.UID, profile, nil
}

func (s *Service) emailForUsername(ctx context.Context, username string) (string, error) {
	raw, err := s.db.Get(ctx, "users")
	if err != nil {
		return "", fmt.Errorf("failed to scan users: %w", err)
	}
	for _, doc := range store.Children(raw) {
		fields, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if fields["username"] == username {
			if email, ok := fields["email"].(string); ok && email != "" {
				return email, nil
			}
		}
	}
	return "", common.Validationf("Invalid username")
}

// ResetPassword asks the provider to email a reset link.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if email == "" {
		return common.Validationf("Email is required.")
	}
	return s.provider.SendPasswordReset(ctx, email)
}

func (s *Service) Profile(ctx context.Context, uid string) (*UserProfile, error) {
	raw, err := s.db.Get(ctx, userPath(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("User not found")
	}
	var profile UserProfile
	if err := store.Decode(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &profile, nil
}

type ProfilePatch struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// UpdateProfile patches the stored record; a password change goes to the
// provider and needs the caller's ID token.
func (s *Service) UpdateProfile(ctx context.Context, uid, idToken string, patch ProfilePatch) error {
	if _, err := s.Profile(ctx, uid); err != nil {
		return err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Username != nil {
		updates["username"] = *patch.Username
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}

	if patch.Password != nil {
		if len(*patch.Password) < 6 {
			return common.Validationf("Password must be at least 6 characters long")
		}
		if idToken == "" {
			return common.AccessDeniedf("Password change requires authentication")
		}
		if err := s.provider.UpdatePassword(ctx, idToken, *patch.Password); err != nil {
			return err
		}
	}

	if len(updates) == 0 && patch.Password == nil {
		return common.Validationf("No valid fields to update")
	}
	if len(updates) > 0 {
		if err := s.db.Update(ctx, userPath(uid), updates); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
	}
	return nil
}
