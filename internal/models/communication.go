package models

import "time"

// Communication sources
const (
	SourceOpenPhoneSMS   = "openphone_sms"
	SourceOpenPhoneCall  = "openphone_call"
	SourceHostifyMessage = "hostify_message"
)

// Communication directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// GuestCommunication represents one inbound or outbound guest contact event.
// Records are created once by the aggregator on first sight of an external
// event and are immutable afterwards.
type GuestCommunication struct {
	ID             string            `json:"id"`
	ReservationID  int64             `json:"reservationId"`
	Source         string            `json:"source"`
	ExternalID     string            `json:"externalId"`
	Content        string            `json:"content"`
	Direction      string            `json:"direction"`
	SenderName     string            `json:"senderName,omitempty"`
	SenderPhone    string            `json:"senderPhone,omitempty"`
	CommunicatedAt time.Time         `json:"communicatedAt"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}
