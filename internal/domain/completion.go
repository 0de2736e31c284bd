package domain

import (
	"encoding/json"
	"time"
)

// Completion is one saved assistant interaction: the free-text prompt and
// the JSON result blob. The log is append-only and never read by the
// transaction state machine.
type Completion struct {
	ID        int64           `json:"id"`
	Prompt    string          `json:"prompt"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
