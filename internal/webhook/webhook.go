// Package webhook delivers outbound chat messages to the platform connector
// over HTTP POST.
package webhook

// MessagePayload is the structure sent to the connector's webhook URL.
type MessagePayload struct {
	Channel  string `json:"channel"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Text     string `json:"text"`
}
