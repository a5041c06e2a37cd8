package response

import (
	"time"

	"storefront-auth/pkg/utils"
)

// SessionResponse is one entry in the "my sessions" listing, classified for
// display.
type SessionResponse struct {
	ID               string           `json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	LastUsedAt       time.Time        `json:"last_used_at"`
	IPAddress        *string          `json:"ip_address,omitempty"`
	Device           utils.DeviceInfo `json:"device"`
	DeviceLabel      string           `json:"device_label"`
	IsCurrentSession bool             `json:"is_current_session"`
	IsRevoked        bool             `json:"is_revoked"`
}

type RevokeOthersResponse struct {
	RevokedCount int64 `json:"revoked_count"`
}
