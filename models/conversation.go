package models

import "time"

// ConversationState tracks where a user is in the booking funnel.
type ConversationState string

const (
	StateInitial    ConversationState = "initial"
	StateCollecting ConversationState = "collecting_slots"
	StateSearching  ConversationState = "searching"
	StatePresenting ConversationState = "presenting_results"
	StateClarifying ConversationState = "clarifying"
)

// MessageModality distinguishes text messages from voice notes.
type MessageModality string

const (
	ModalityText  MessageModality = "text"
	ModalityVoice MessageModality = "voice"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation entry. Messages are immutable once
// created; slice order is chronological order.
type Message struct {
	Role      string          `json:"role" bson:"role"`
	Content   string          `json:"content" bson:"content"`
	Modality  MessageModality `json:"modality" bson:"modality"`
	Language  string          `json:"language,omitempty" bson:"language,omitempty"`
	Timestamp time.Time       `json:"timestamp" bson:"timestamp"`
	MediaURL  string          `json:"media_url,omitempty" bson:"media_url,omitempty"`
}

// Conversation is the durable per-user record: accumulated slots, message
// history, the last completed search fingerprint and a monotonically
// increasing version counter used for conditional writes.
type Conversation struct {
	UserID              string            `json:"user_id" bson:"user_id"`
	Slots               Slots             `json:"slots" bson:"slots"`
	Messages            []Message         `json:"messages" bson:"messages"`
	State               ConversationState `json:"state" bson:"state"`
	Language            string            `json:"language,omitempty" bson:"language,omitempty"`
	LastModality        MessageModality   `json:"last_modality,omitempty" bson:"last_modality,omitempty"`
	LastCompletedSearch string            `json:"last_completed_search,omitempty" bson:"last_completed_search,omitempty"`
	LastItinerarySummary string           `json:"last_itinerary_summary,omitempty" bson:"last_itinerary_summary,omitempty"`
	Summary             string            `json:"summary,omitempty" bson:"summary,omitempty"`
	Version             int64             `json:"version" bson:"version"`
	CreatedAt           time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" bson:"updated_at"`
}

// NewConversation returns a fresh record for a first-time sender.
func NewConversation(userID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		UserID:    userID,
		Slots:     Slots{Passengers: 1},
		Messages:  []Message{},
		State:     StateInitial,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message and keeps the modality/language trackers current.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	if msg.Role == RoleUser {
		c.LastModality = msg.Modality
		if c.Language == "" && msg.Language != "" {
			c.Language = msg.Language
		}
	}
}

// RecentMessages returns up to n trailing messages.
func (c *Conversation) RecentMessages(n int) []Message {
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}
