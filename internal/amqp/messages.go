package amqp

import (
	"encoding/json"
	"time"
)

// TransactionRecordedMessage announces a newly appended ledger row. It only
// carries the row ID; the worker fetches the full transaction from the store
// so the ledger stays the single source of truth.
type TransactionRecordedMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
