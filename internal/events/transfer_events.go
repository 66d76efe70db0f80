package events

import (
	"encoding/json"
	"fmt"

	"bridge-backend/internal/models"
)

const defaultSubjectPrefix = "bridge.transfer"

// Publisher raw message transport, implemented by clients.NATSClient
type Publisher interface {
	Publish(subject string, data []byte) error
}

// TransferEventPublisher publishes transfer lifecycle events as JSON,
// one subject per status: <prefix>.broadcasted, <prefix>.confirmed, <prefix>.failed
type TransferEventPublisher struct {
	publisher     Publisher
	subjectPrefix string
}

// NewTransferEventPublisher Create transfer event publisher
func NewTransferEventPublisher(publisher Publisher, subjectPrefix string) *TransferEventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}
	return &TransferEventPublisher{
		publisher:     publisher,
		subjectPrefix: subjectPrefix,
	}
}

// Subject subject of a status
func (p *TransferEventPublisher) Subject(status models.TransferStatus) string {
	return p.subjectPrefix + "." + string(status)
}

// PublishTransferEvent encodes and publishes an event
func (p *TransferEventPublisher) PublishTransferEvent(event models.TransferEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode transfer event: %w", err)
	}
	return p.publisher.Publish(p.Subject(event.Status), data)
}
