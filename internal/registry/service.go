package registry

import (
	"context"
	"fmt"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

type Service struct {
	db store.DocumentStore
}

func NewService(db store.DocumentStore) *Service {
	return &Service{db: db}
}

func registryPath(deviceID string) string {
	return "registered_devices/" + deviceID
}

// Provision adds a device identity to the registry.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*RegisteredDevice, error) {
	raw, err := s.db.Get(ctx, registryPath(req.DeviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to check registry: %w", err)
	}
	if raw != nil {
		return nil, common.Validationf("Device already registered")
	}

	device := &RegisteredDevice{
		Model:      req.Model,
		Registered: true,
		Status:     "available",
		CreatedAt:  common.Now(),
	}
	encoded, err := store.Encode(device)
	if err != nil {
		return nil, fmt.Errorf("failed to encode device: %w", err)
	}
	if err := s.db.Set(ctx, registryPath(req.DeviceID), encoded); err != nil {
		return nil, fmt.Errorf("failed to save device: %w", err)
	}
	return device, nil
}

func (s *Service) Get(ctx context.Context, deviceID string) (*RegisteredDevice, error) {
	raw, err := s.db.Get(ctx, registryPath(deviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to load registry entry: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Device not registered")
	}
	var device RegisteredDevice
	if err := store.Decode(raw, &device); err != nil {
		return nil, fmt.Errorf("failed to decode registry entry: %w", err)
	}
	return &device, nil
}

func (s *Service) List(ctx context.Context) (map[string]any, error) {
	raw, err := s.db.Get(ctx, "registered_devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list registry: %w", err)
	}
	return store.Children(raw), nil
}

// Validate reports whether a device ID can be claimed by a user. The reason
// is suitable for returning to the caller verbatim.
func (s *Service) Validate(ctx context.Context, deviceID string) (bool, string, error) {
	raw, err := s.db.Get(ctx, registryPath(deviceID))
	if err != nil {
		return false, "", fmt.Errorf("failed to check registry: %w", err)
	}
	if raw == nil {
		return false, "Device not registered", nil
	}
	var device RegisteredDevice
	if err := store.Decode(raw, &device); err != nil {
		return false, "", fmt.Errorf("failed to decode registry entry: %w", err)
	}
	if device.Status != "available" {
		return false, "Device is already in use", nil
	}
	return true, "", nil
}

// MarkInUse binds a registry entry to a user after the device is claimed.
func (s *Service) MarkInUse(ctx context.Context, deviceID, userID string) error {
	err := s.db.Update(ctx, registryPath(deviceID), map[string]any{
		"status":       "in_use",
		"user_id":      userID,
		"last_updated": common.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to mark device in use: %w", err)
	}
	return nil
}

// Release returns a registry entry to the available pool.
func (s *Service) Release(ctx context.Context, deviceID string) error {
	err := s.db.Update(ctx, registryPath(deviceID), map[string]any{
		"status":       "available",
		"user_id":      nil,
		"last_updated": common.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to release device: %w", err)
	}
	return nil
}
