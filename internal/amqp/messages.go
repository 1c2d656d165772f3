package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ledger event types.
const (
	EventIncomeAdded         = "income.added"
	EventExpenseAdded        = "expense.added"
	EventExpenseEdited       = "expense.edited"
	EventExpenseDeleted      = "expense.deleted"
	EventSubscriptionAdded   = "subscription.added"
	EventSubscriptionEdited  = "subscription.edited"
	EventSubscriptionDeleted = "subscription.deleted"
	EventGoalAdded           = "goal.added"
	EventGoalEdited          = "goal.edited"
	EventGoalDeleted         = "goal.deleted"
	EventBalanceSet          = "balance.set"
	EventThemeChanged        = "theme.changed"
	EventLedgerImported      = "ledger.imported"
)

// LedgerEvent announces an applied ledger mutation. Amounts are decimal
// strings so consumers never see float rounding.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Balance   string    `json:"balance"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event with a fresh id and the current time.
func NewLedgerEvent(eventType string, entityID int64, amount, balance string, revision uint64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Amount:    amount,
		Balance:   balance,
		Revision:  revision,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.Type == "" {
		return nil, errors.New("ledger event requires id and type")
	}
	return &msg, nil
}
