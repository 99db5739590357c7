package ws

import "time"

type MessageType string

const (
	MessageTypeConnected    MessageType = "connected"
	MessageTypeNotification MessageType = "notification"
	MessageTypeSpeech       MessageType = "speech"
	MessageTypeStatus       MessageType = "status"
	MessageTypeScore        MessageType = "score"
	MessageTypeError        MessageType = "error"
)

// Heartbeat literals exchanged as raw text frames, outside the JSON protocol.
const (
	PingLiteral = "ping"
	PongLiteral = "pong"
)

// Message is the tagged server-to-client envelope. Type selects which of
// the optional fields are populated.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`

	DebateID int64  `json:"debate_id,omitempty"`
	UserID   *int64 `json:"user_id,omitempty"`

	NotificationType string `json:"notification_type,omitempty"`
	Text             string `json:"message,omitempty"`

	Phase   string `json:"phase,omitempty"`
	AgentID int64  `json:"agent_id,omitempty"`
	Content string `json:"content,omitempty"`

	Status       string `json:"status,omitempty"`
	CurrentPhase string `json:"current_phase,omitempty"`
	CurrentStep  int    `json:"current_step,omitempty"`

	ProScore int    `json:"pro_score,omitempty"`
	ConScore int    `json:"con_score,omitempty"`
	Comments string `json:"comments,omitempty"`

	Error string `json:"error,omitempty"`
}

func NewConnected(debateID, userID int64) Message {
	return Message{
		Type:      MessageTypeConnected,
		Timestamp: time.Now().UTC(),
		DebateID:  debateID,
		UserID:    &userID,
	}
}

func NewNotification(notificationType, text string) Message {
	return Message{
		Type:             MessageTypeNotification,
		Timestamp:        time.Now().UTC(),
		NotificationType: notificationType,
		Text:             text,
	}
}

func NewSpeech(phase string, agentID int64, content string) Message {
	return Message{
		Type:      MessageTypeSpeech,
		Timestamp: time.Now().UTC(),
		Phase:     phase,
		AgentID:   agentID,
		Content:   content,
	}
}

func NewStatus(debateID int64, status, currentPhase string, currentStep int) Message {
	return Message{
		Type:         MessageTypeStatus,
		Timestamp:    time.Now().UTC(),
		DebateID:     debateID,
		Status:       status,
		CurrentPhase: currentPhase,
		CurrentStep:  currentStep,
	}
}

func NewScore(debateID int64, proScore, conScore int, comments string) Message {
	return Message{
		Type:      MessageTypeScore,
		Timestamp: time.Now().UTC(),
		DebateID:  debateID,
		ProScore:  proScore,
		ConScore:  conScore,
		Comments:  comments,
	}
}

func NewError(msg string) Message {
	return Message{
		Type:      MessageTypeError,
		Timestamp: time.Now().UTC(),
		Error:     msg,
	}
}
