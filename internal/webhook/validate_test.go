package webhook_test

import (
	"errors"
	"strings"
	"testing"

	"coinsort/internal/webhook"
)

func validBody() string {
	return `{
		"trigger": "STORE_TRANSACTION",
		"response": "TRANSACTIONS",
		"content": {
			"id": 412,
			"transactions": [
				{
					"type": "withdrawal",
					"description": "Coffee at the corner bar",
					"destination_name": "Corner Bar",
					"amount": "4.50",
					"currency_code": "EUR",
					"transaction_journal_id": 998
				}
			]
		}
	}`
}

func decodeValid(t *testing.T, body string) *webhook.Payload {
	t.Helper()
	payload, err := webhook.Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload
}

func TestValidateAcceptsCleanWithdrawal(t *testing.T) {
	item, err := webhook.Validate(decodeValid(t, validBody()))
	if err != nil {
		t.Fatalf("expected payload to pass validation, got %v", err)
	}
	if item.ContentID != "412" {
		t.Errorf("content id = %q, want %q", item.ContentID, "412")
	}
	if item.DestinationName != "Corner Bar" {
		t.Errorf("destination = %q, want %q", item.DestinationName, "Corner Bar")
	}
	if item.Description != "Coffee at the corner bar" {
		t.Errorf("description = %q", item.Description)
	}
	if len(item.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(item.Transactions))
	}
}

func TestValidateRejectsFirstViolatedRule(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*webhook.Payload)
		wantRule   string
		wantReason string
	}{
		{
			name:       "wrong trigger",
			mutate:     func(p *webhook.Payload) { p.Trigger = "UPDATE_TRANSACTION" },
			wantRule:   "trigger",
			wantReason: "event trigger must be STORE_TRANSACTION",
		},
		{
			name:       "wrong response",
			mutate:     func(p *webhook.Payload) { p.Response = "ACCOUNTS" },
			wantRule:   "response",
			wantReason: "event response must be TRANSACTIONS",
		},
		{
			name:       "missing content id",
			mutate:     func(p *webhook.Payload) { p.Content.ID = "" },
			wantRule:   "content-id",
			wantReason: "content id is missing",
		},
		{
			name:       "no transactions",
			mutate:     func(p *webhook.Payload) { p.Content.Transactions = nil },
			wantRule:   "transactions",
			wantReason: "no transactions available in content",
		},
		{
			name:       "deposit instead of withdrawal",
			mutate:     func(p *webhook.Payload) { p.Content.Transactions[0].Type = "deposit" },
			wantRule:   "type",
			wantReason: "transaction type must be withdrawal",
		},
		{
			name:       "already categorized",
			mutate:     func(p *webhook.Payload) { p.Content.Transactions[0].CategoryID = "7" },
			wantRule:   "category",
			wantReason: "transaction already has a category",
		},
		{
			name:       "blank description",
			mutate:     func(p *webhook.Payload) { p.Content.Transactions[0].Description = "  " },
			wantRule:   "description",
			wantReason: "transaction description is missing",
		},
		{
			name:       "blank destination",
			mutate:     func(p *webhook.Payload) { p.Content.Transactions[0].DestinationName = "" },
			wantRule:   "destination",
			wantReason: "transaction destination name is missing",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := decodeValid(t, validBody())
			tc.mutate(payload)

			_, err := webhook.Validate(payload)
			var verr *webhook.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Rule != tc.wantRule {
				t.Errorf("rule = %q, want %q", verr.Rule, tc.wantRule)
			}
			if verr.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", verr.Reason, tc.wantReason)
			}
			if verr.Error() != tc.wantReason {
				t.Errorf("Error() = %q, want the bare reason", verr.Error())
			}
		})
	}
}

func TestValidateRuleOrderIsStable(t *testing.T) {
	// A payload violating several rules must report the earliest one.
	payload := decodeValid(t, validBody())
	payload.Content.Transactions[0].Type = "deposit"
	payload.Content.Transactions[0].Description = ""
	payload.Content.Transactions = payload.Content.Transactions[:0]

	_, err := webhook.Validate(payload)
	var verr *webhook.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Rule != "transactions" {
		t.Errorf("rule = %q, want %q", verr.Rule, "transactions")
	}
}

func TestValidateOnlyInspectsFirstSplit(t *testing.T) {
	body := strings.Replace(validBody(),
		`"transaction_journal_id": 998
				}`,
		`"transaction_journal_id": 998
				},
				{
					"type": "deposit",
					"description": "",
					"destination_name": "",
					"category_id": 3,
					"transaction_journal_id": 999
				}`, 1)

	item, err := webhook.Validate(decodeValid(t, body))
	if err != nil {
		t.Fatalf("expected second split to be ignored by validation, got %v", err)
	}
	if len(item.Transactions) != 2 {
		t.Fatalf("transactions = %d, want both splits carried", len(item.Transactions))
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := webhook.Decode(strings.NewReader("{not json"))
	var verr *webhook.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Rule != "decode" {
		t.Errorf("rule = %q, want %q", verr.Rule, "decode")
	}
}

func TestFlexibleIDToleratesStringsAndNumbers(t *testing.T) {
	payload := decodeValid(t, strings.Replace(validBody(), `"id": 412`, `"id": "412"`, 1))
	if payload.Content.ID.String() != "412" {
		t.Errorf("string id = %q, want %q", payload.Content.ID.String(), "412")
	}

	payload = decodeValid(t, strings.Replace(validBody(), `"id": 412`, `"id": null`, 1))
	if payload.Content.ID.String() != "" {
		t.Errorf("null id = %q, want empty", payload.Content.ID.String())
	}
}
