package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// DefaultNamespace is used when an intake message carries no namespace.
const DefaultNamespace = "default"

// IncomingMessage is a raw message fetched from the intake topic.
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// CandidateMessage is the intake payload produced by acquisition connectors:
// a partially-identified lead plus routing metadata.
type CandidateMessage struct {
	Namespace string               `json:"namespace,omitempty"`
	Source    string               `json:"source,omitempty"`
	Candidate models.CandidateLead `json:"candidate"`
}

// ParseCandidateMessage decodes the message value as a candidate lead. The
// namespace falls back to the message header, then to DefaultNamespace.
func (m *IncomingMessage) ParseCandidateMessage() (*CandidateMessage, error) {
	var msg CandidateMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return nil, fmt.Errorf("invalid candidate message: %w", err)
	}
	if msg.Namespace == "" {
		msg.Namespace = m.Headers["namespace"]
	}
	if msg.Namespace == "" {
		msg.Namespace = DefaultNamespace
	}
	if msg.Source == "" {
		msg.Source = m.Headers["source"]
	}
	return &msg, nil
}
