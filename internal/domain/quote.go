package domain

import (
	"time"

	"github.com/soyeahso/cargoquote/internal/pricing"
)

// Quote is a finished calculation together with who asked for it. It is
// what gets persisted and mailed to the operator.
type Quote struct {
	Identity  string                `json:"identity"`
	ChannelID string                `json:"channelId"`
	UserID    string                `json:"userId"`
	Username  string                `json:"username,omitempty"`
	Result    pricing.CostBreakdown `json:"result"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Business holds the public contact details shown to customers.
type Business struct {
	Name     string `json:"name" yaml:"name"`
	Phone    string `json:"phone" yaml:"phone"`
	Email    string `json:"email" yaml:"email"`
	Telegram string `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Website  string `json:"website,omitempty" yaml:"website,omitempty"`
	Hours    string `json:"hours,omitempty" yaml:"hours,omitempty"`
}
