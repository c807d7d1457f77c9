package model

import "time"

// MonthlyKudosLimit caps how many kudos one person can send per calendar month.
const MonthlyKudosLimit = 5

// Kudo is a peer-recognition post.
type Kudo struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Category   string    `json:"category"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`

	SenderName   string          `json:"sender_name,omitempty"`
	ReceiverName string          `json:"receiver_name,omitempty"`
	Comments     []KudoComment   `json:"comments,omitempty"`
	Reactions    map[string]int  `json:"reactions,omitempty"`
}

// KudoComment is a threaded comment on a kudo.
type KudoComment struct {
	ID        string    `json:"id"`
	KudoID    string    `json:"kudo_id"`
	PersonID  string    `json:"user_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	AuthorName string `json:"author_name,omitempty"`
}

// KudoReaction is one person's reaction to a kudo. A person holds at most
// one reaction per kudo; repeating the same type removes it.
type KudoReaction struct {
	ID        string    `json:"id"`
	KudoID    string    `json:"kudo_id"`
	PersonID  string    `json:"user_id"`
	Type      string    `json:"reaction_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel is a messaging room.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Private     bool      `json:"is_private"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`

	Members []Person `json:"members,omitempty"`
}

// Message is one post in a channel.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	PersonID  string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	AuthorName string `json:"user_name,omitempty"`
}

// Share records one board-by-email share.
type Share struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
