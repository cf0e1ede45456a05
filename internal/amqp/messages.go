package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

var errMissingIdentity = errors.New("message without identity id")

// LedgerChangedMessage tells consumers that an identity's ledger gained a
// record. It carries no record data: consumers reload the ledger.
type LedgerChangedMessage struct {
	IdentityID string    `json:"identityId"`
	RecordID   string    `json:"recordId"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(identityID, recordID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		IdentityID: identityID,
		RecordID:   recordID,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message body. A body without an
// identity id is an error: there is nothing to reload.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.IdentityID == "" {
		return nil, errMissingIdentity
	}
	return &msg, nil
}
