package estimate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ratewise/ratewise/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	qty := 250.0
	req := model.EstimateRequest{
		ItemName: "Ceramic Floor Tiling",
		Unit:     "Sqm",
		Currency: "EGP",
		TradeID:  "FIN",
		Specs:    "60x60 porcelain, grade A",
		Location: "Cairo",
		Quantity: &qty,
	}

	top := recordsWithFinalRates(120, 130)
	top[1].FinalRate = nil

	prompt := BuildPrompt(req, top)

	for _, want := range []string{
		"Item: Ceramic Floor Tiling",
		"Unit: Sqm",
		"Currency: EGP",
		"Trade: FIN",
		"Specs: 60x60 porcelain, grade A",
		"Location: Cairo",
		"Quantity: 250",
		"Historical context (2 most recent similar items):",
		"- Ceramic Floor Tiling | Sqm | 120 EGP | 2025-03-13",
		"- Ceramic Floor Tiling | Sqm | n/a EGP | 2025-03-12",
		`"unit_rate": number`,
		`"breakdown": [`,
		"The breakdown totals must sum to unit_rate.",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestBuildPrompt_Placeholders(t *testing.T) {
	req := model.EstimateRequest{ItemName: "Paint", Unit: "Sqm", Currency: "USD"}

	prompt := BuildPrompt(req, nil)

	assert.Contains(t, prompt, "Trade: (unspecified)")
	assert.Contains(t, prompt, "Specs: -")
	assert.Contains(t, prompt, "Location: -")
	assert.Contains(t, prompt, "Quantity: -")
	assert.Contains(t, prompt, "Historical context (0 most recent similar items):\n- none found")
	assert.False(t, strings.Contains(prompt, "```"), "prompt must not invite markdown fences")
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, SystemPrompt, "construction cost")
	assert.Contains(t, SystemPrompt, "strict JSON")
}
