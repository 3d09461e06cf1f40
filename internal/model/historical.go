package model

import (
	"math"
	"time"
)

// HistoricalRecord is a read-only projection of a past priced estimate.
type HistoricalRecord struct {
	CreatedAt time.Time `json:"created_at"`
	FinalRate *float64  `json:"final_rate"`
	AIRate    *float64  `json:"ai_rate"`
	ID        string    `json:"id"`
	ItemName  string    `json:"item_name"`
	Unit      string    `json:"unit"`
	TradeID   string    `json:"trade_id,omitempty"`
	Currency  string    `json:"currency,omitempty"`
}

// Rate returns the finalized rate when present, otherwise the AI rate.
// The second return value is false when neither is a finite number.
func (r HistoricalRecord) Rate() (float64, bool) {
	for _, v := range []*float64{r.FinalRate, r.AIRate} {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return 0, false
		}
		return *v, true
	}
	return 0, false
}
