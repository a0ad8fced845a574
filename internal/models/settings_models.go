package models

import "time"

// RestaurantSetting is one key/value configuration entry for a restaurant.
type RestaurantSetting struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OnboardingState is the persisted progress of the setup wizard. It lives
// server-side so progress survives devices and sessions.
type OnboardingState struct {
	RestaurantID   int64     `json:"restaurant_id"`
	CurrentStep    string    `json:"current_step"`
	CompletedSteps []string  `json:"completed_steps"`
	IsComplete     bool      `json:"is_complete"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AgentChannelType is the transport an AI agent answers on.
type AgentChannelType string

const (
	AgentChannelPhone    AgentChannelType = "phone"
	AgentChannelWebVoice AgentChannelType = "web_voice"
)

// IsValidAgentChannelType reports whether t is a known channel type.
func IsValidAgentChannelType(t AgentChannelType) bool {
	return t == AgentChannelPhone || t == AgentChannelWebVoice
}

// AgentChannel is the configuration of an AI voice agent channel for a
// restaurant. This service stores configuration only; call handling is an
// external collaborator.
type AgentChannel struct {
	ID               int64            `json:"id"`
	RestaurantID     int64            `json:"restaurant_id"`
	ChannelType      AgentChannelType `json:"channel_type"`
	Greeting         *string          `json:"greeting,omitempty"`
	ForwardingNumber *string          `json:"forwarding_number,omitempty"`
	IsEnabled        bool             `json:"is_enabled"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
