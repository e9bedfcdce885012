package webhook

import "strings"

const (
	// TriggerStoreTransaction is the event-trigger sentinel accepted by the pipeline.
	TriggerStoreTransaction = "STORE_TRANSACTION"
	// ResponseTransactions is the response-shape sentinel accepted by the pipeline.
	ResponseTransactions = "TRANSACTIONS"
	// TypeWithdrawal is the only transaction type eligible for classification.
	TypeWithdrawal = "withdrawal"
)

// ValidationError describes the first rule a payload violated.
type ValidationError struct {
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// WorkItem is the validated extract of an accepted notification. It seeds a
// new job and parameterizes the classification workflow; the original splits
// ride along because the category commit must re-submit them.
type WorkItem struct {
	ContentID       string
	DestinationName string
	Description     string
	Transactions    []Transaction
}

type rule struct {
	name  string
	check func(*Payload) *ValidationError
}

func fail(name, reason string) *ValidationError {
	return &ValidationError{Rule: name, Reason: reason}
}

// rules is the ordered validation chain. Order matters: each rule may assume
// everything before it held.
var rules = []rule{
	{"trigger", func(p *Payload) *ValidationError {
		if p.Trigger != TriggerStoreTransaction {
			return fail("trigger", "event trigger must be "+TriggerStoreTransaction)
		}
		return nil
	}},
	{"response", func(p *Payload) *ValidationError {
		if p.Response != ResponseTransactions {
			return fail("response", "event response must be "+ResponseTransactions)
		}
		return nil
	}},
	{"content-id", func(p *Payload) *ValidationError {
		if strings.TrimSpace(p.Content.ID.String()) == "" {
			return fail("content-id", "content id is missing")
		}
		return nil
	}},
	{"transactions", func(p *Payload) *ValidationError {
		if len(p.Content.Transactions) == 0 {
			return fail("transactions", "no transactions available in content")
		}
		return nil
	}},
	{"type", func(p *Payload) *ValidationError {
		if p.Content.Transactions[0].Type != TypeWithdrawal {
			return fail("type", "transaction type must be "+TypeWithdrawal)
		}
		return nil
	}},
	{"category", func(p *Payload) *ValidationError {
		if strings.TrimSpace(p.Content.Transactions[0].CategoryID.String()) != "" {
			return fail("category", "transaction already has a category")
		}
		return nil
	}},
	{"description", func(p *Payload) *ValidationError {
		if strings.TrimSpace(p.Content.Transactions[0].Description) == "" {
			return fail("description", "transaction description is missing")
		}
		return nil
	}},
	{"destination", func(p *Payload) *ValidationError {
		if strings.TrimSpace(p.Content.Transactions[0].DestinationName) == "" {
			return fail("destination", "transaction destination name is missing")
		}
		return nil
	}},
}

// Validate runs the ordered rule chain against a decoded payload and either
// returns a WorkItem or the first violation as a *ValidationError.
func Validate(p *Payload) (WorkItem, error) {
	if p == nil {
		return WorkItem{}, fail("decode", "request body is not valid JSON")
	}
	for _, r := range rules {
		if verr := r.check(p); verr != nil {
			return WorkItem{}, verr
		}
	}
	first := p.Content.Transactions[0]
	return WorkItem{
		ContentID:       p.Content.ID.String(),
		DestinationName: strings.TrimSpace(first.DestinationName),
		Description:     strings.TrimSpace(first.Description),
		Transactions:    append([]Transaction(nil), p.Content.Transactions...),
	}, nil
}
