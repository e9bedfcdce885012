package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Payload mirrors the envelope the finance service posts when a transaction
// group is stored.
type Payload struct {
	Trigger  string  `json:"trigger"`
	Response string  `json:"response"`
	Content  Content `json:"content"`
}

// Content carries the stored transaction group.
type Content struct {
	ID           FlexibleID    `json:"id"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one split of the stored group. Only the fields the pipeline
// and the category commit need are decoded; everything else is ignored.
type Transaction struct {
	Type                 string     `json:"type"`
	Description          string     `json:"description"`
	DestinationName      string     `json:"destination_name"`
	SourceName           string     `json:"source_name"`
	Amount               string     `json:"amount"`
	CurrencyCode         string     `json:"currency_code"`
	CategoryID           FlexibleID `json:"category_id"`
	CategoryName         string     `json:"category_name"`
	TransactionJournalID FlexibleID `json:"transaction_journal_id"`
}

// FlexibleID tolerates the finance service emitting identifiers as JSON
// strings, numbers, or null depending on version and endpoint.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string { return string(f) }

// Decode parses a notification body. Malformed JSON is reported as a
// ValidationError so the transport layer can answer with a client error.
func Decode(r io.Reader) (*Payload, error) {
	var payload Payload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, &ValidationError{Rule: "decode", Reason: "request body is not valid JSON"}
	}
	return &payload, nil
}
