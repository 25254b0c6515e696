package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Context keys written by the engine.
const (
	ContextLastIntent      = "last_intent"
	ContextLastConfidence  = "last_confidence"
	ContextIntentSource    = "intent_source"
	ContextLastQuoteID     = "last_quote_id"
	ContextLastQuoteNumber = "last_quote_number"
	ContextLastPDFPath     = "last_pdf_path"
	// Legacy location of the product list; only ever deleted.
	ContextProductsInProgress = "products_in_progress"
)

// Conversation is one quoting session of a user.
type Conversation struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	WhatsAppChatID     string
	Status             Status
	State              State
	Context            map[string]any
	ProductsInProgress []AccumulationRecord
	TotalMessages      int
	LastActivity       time.Time
	CompletedAt        *time.Time
	TimeoutAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RequestedProduct is what the user asked for, as normalized by the extractor.
type RequestedProduct struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
}

// CandidateProduct is a catalog snapshot taken at match time.
type CandidateProduct struct {
	ID            *uuid.UUID `json:"id,omitempty"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	PriceCents    int64      `json:"price_cents"`
	StockQuantity int        `json:"stock_quantity"`
}

// AccumulationRecord is a pending line item. Options are ranked and Options[0]
// is the accepted match.
type AccumulationRecord struct {
	Requested RequestedProduct   `json:"requested"`
	Options   []CandidateProduct `json:"options"`
}

// Accepted returns the option used for quoting, if any.
func (r AccumulationRecord) Accepted() (CandidateProduct, bool) {
	if len(r.Options) == 0 {
		return CandidateProduct{}, false
	}
	return r.Options[0], true
}

// Quantity is the requested quantity, never below one.
func (r AccumulationRecord) Quantity() int {
	if r.Requested.Quantity < 1 {
		return 1
	}
	return r.Requested.Quantity
}

// LineTotalCents is quantity times the accepted price, or zero without a match.
func (r AccumulationRecord) LineTotalCents() int64 {
	opt, ok := r.Accepted()
	if !ok {
		return 0
	}
	return int64(r.Quantity()) * opt.PriceCents
}

// SubtotalCents sums the line totals of records that have an accepted option.
func SubtotalCents(records []AccumulationRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.LineTotalCents()
	}
	return total
}

// AppendRecords returns a new slice holding existing followed by added.
// Neither input is modified.
func AppendRecords(existing, added []AccumulationRecord) []AccumulationRecord {
	out := make([]AccumulationRecord, 0, len(existing)+len(added))
	out = append(out, existing...)
	return append(out, added...)
}

// ContextPatch is a keyed update of the conversation context. Keys in Delete
// are removed after Set is merged.
type ContextPatch struct {
	Set    map[string]any
	Delete []string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p ContextPatch) IsEmpty() bool {
	return len(p.Set) == 0 && len(p.Delete) == 0
}

// With returns a copy of p with key set to value.
func (p ContextPatch) With(key string, value any) ContextPatch {
	set := make(map[string]any, len(p.Set)+1)
	maps.Copy(set, p.Set)
	set[key] = value
	del := make([]string, 0, len(p.Delete))
	for _, k := range p.Delete {
		if k != key {
			del = append(del, k)
		}
	}
	return ContextPatch{Set: set, Delete: del}
}

// Without returns a copy of p that deletes key.
func (p ContextPatch) Without(key string) ContextPatch {
	set := make(map[string]any, len(p.Set))
	maps.Copy(set, p.Set)
	delete(set, key)
	del := append(append([]string(nil), p.Delete...), key)
	return ContextPatch{Set: set, Delete: del}
}

// ApplyTo merges the patch into a copy of ctx.
func (p ContextPatch) ApplyTo(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx)+len(p.Set))
	maps.Copy(out, ctx)
	maps.Copy(out, p.Set)
	for _, k := range p.Delete {
		delete(out, k)
	}
	return out
}

// Participant is the authenticated employee talking to the bot.
type Participant struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// QuoteLine is an accepted record handed to the quote builder.
type QuoteLine struct {
	ProductID      *uuid.UUID
	SKU            string
	Name           string
	Description    string
	Quantity       int
	UnitPriceCents int64
}

// QuoteRequest asks the quote builder to persist a quote.
type QuoteRequest struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	CustomerName   string
	Lines          []QuoteLine
}

// QuoteResult is the persisted quote as seen by the engine.
type QuoteResult struct {
	ID         uuid.UUID
	Number     string
	TotalCents int64
	ItemCount  int
}

// QuoteLines maps every record with an accepted option to a quote line.
func QuoteLines(records []AccumulationRecord) []QuoteLine {
	lines := make([]QuoteLine, 0, len(records))
	for _, r := range records {
		opt, ok := r.Accepted()
		if !ok {
			continue
		}
		lines = append(lines, QuoteLine{
			ProductID:      opt.ID,
			SKU:            opt.SKU,
			Name:           opt.Name,
			Description:    r.Requested.Description,
			Quantity:       r.Quantity(),
			UnitPriceCents: opt.PriceCents,
		})
	}
	return lines
}
