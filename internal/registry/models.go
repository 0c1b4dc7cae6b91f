package registry

// RegisteredDevice is a factory-provisioned device identity. A device must
// exist here before a user can claim it.
type RegisteredDevice struct {
	Model      string `json:"model"`
	Registered bool   `json:"registered"`
	// Status is "available" until a user binds the device, then "in_use".
	Status      string `json:"status"`
	UserID      string `json:"user_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

type ProvisionRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Model    string `json:"model" binding:"required"`
}
