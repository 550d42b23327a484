package domain

// ChannelName identifies a notification delivery channel.
type ChannelName string

const (
	ChannelPush    ChannelName = "push"
	ChannelEmail   ChannelName = "email"
	ChannelSMS     ChannelName = "sms"
	ChannelWebhook ChannelName = "webhook"
)

// NotificationAttempt records one (alert, recipient, channel) send outcome.
// Attempts are dispatch bookkeeping, not durable records: the service
// observes provider success or failure but does not track delivery receipts.
type NotificationAttempt struct {
	AlertID     string      `json:"alert_id"`
	RecipientID string      `json:"recipient_id"`
	Channel     ChannelName `json:"channel"`
	Succeeded   bool        `json:"succeeded"`
	Error       string      `json:"error,omitempty"`
}

// DispatchResult aggregates one complete dispatch pass. Partial failure is a
// normal outcome: Errors being non-empty does not make the pass an error.
// The aggregate is commutative over recipients; no ordering is implied.
type DispatchResult struct {
	AlertID           string        `json:"alert_id"`
	Recipients        int           `json:"recipients"`
	Attempts          int           `json:"attempts"`
	NotificationsSent int           `json:"notifications_sent"`
	ChannelsUsed      []ChannelName `json:"channels_used"`
	Errors            []string      `json:"errors,omitempty"`
}
