package estimate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ratewise/ratewise/internal/model"
)

// SystemPrompt frames the model for every estimation call.
const SystemPrompt = "You are a concise, numeric, consistent construction cost AI. " +
	"You price construction work items per unit and always answer with strict JSON."

const noTrade = "(unspecified)"

// BuildPrompt renders the user prompt for req with the top historical records.
func BuildPrompt(req model.EstimateRequest, top []model.HistoricalRecord) string {
	var b strings.Builder

	b.WriteString("Estimate the unit rate for the following construction work item.\n\n")
	fmt.Fprintf(&b, "Item: %s\n", req.ItemName)
	fmt.Fprintf(&b, "Unit: %s\n", req.Unit)
	fmt.Fprintf(&b, "Currency: %s\n", req.Currency)
	fmt.Fprintf(&b, "Trade: %s\n", orDefault(req.TradeID, noTrade))
	fmt.Fprintf(&b, "Specs: %s\n", orDefault(req.Specs, "-"))
	fmt.Fprintf(&b, "Location: %s\n", orDefault(req.Location, "-"))
	if req.Quantity != nil {
		fmt.Fprintf(&b, "Quantity: %s\n", formatNumber(*req.Quantity))
	} else {
		b.WriteString("Quantity: -\n")
	}

	fmt.Fprintf(&b, "\nHistorical context (%d most recent similar items):\n", len(top))
	if len(top) == 0 {
		b.WriteString("- none found\n")
	}
	for _, rec := range top {
		rate := "n/a"
		if r, ok := rec.Rate(); ok {
			rate = formatNumber(r)
		}
		fmt.Fprintf(&b, "- %s | %s | %s %s | %s\n",
			rec.ItemName,
			rec.Unit,
			rate,
			orDefault(rec.Currency, req.Currency),
			rec.CreatedAt.Format("2006-01-02"))
	}

	b.WriteString(`
Return strict JSON only, no prose and no markdown, with exactly these keys:
{
  "unit_rate": number,
  "currency": string,
  "confidence": number between 0 and 1,
  "rationale": string,
  "breakdown": [
    {"category": "materials" | "labor" | "equipment" | "overhead" | "other", "name": string, "qty": number, "unit": string, "unit_price": number, "total": number}
  ]
}
The breakdown totals must sum to unit_rate. Use the historical context as an anchor when it is relevant.
`)

	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
