package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratewise/ratewise/internal/common"
	"github.com/ratewise/ratewise/internal/estimate"
	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

func estimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a unit rate for one work item",
		Long: `Run the estimation pipeline once and print the result as JSON.

Transient failures (history store or completion transport) are retried with
exponential backoff. With --save the reconciled rate is stored as an AI rate
so later estimates can use it as historical context.`,
		Example: `  ratewise estimate --item "Ceramic Floor Tiling" --unit Sqm --k 5
  ratewise estimate --item "Reinforced concrete slab" --unit m3 --trade STR --save`,
		RunE: runEstimate,
	}

	cmd.Flags().String("item", "", "work item name (required)")
	cmd.Flags().String("unit", "", "unit of measure (required)")
	cmd.Flags().String("trade", "", "trade identifier")
	cmd.Flags().String("currency", "", "currency code (default from estimate.default_currency)")
	cmd.Flags().String("location", "", "project location")
	cmd.Flags().String("specs", "", "free-text specification")
	cmd.Flags().Float64("quantity", 0, "quantity of the item")
	cmd.Flags().Int("k", 0, "number of historical records shown to the model")
	cmd.Flags().Int("decay-months", 0, "recency window echoed in the result")
	cmd.Flags().Int("attempts", 3, "maximum attempts for transient failures")
	cmd.Flags().Bool("save", false, "store the estimate as a historical AI rate")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("unit")

	return cmd
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	req := model.EstimateRequest{}
	req.ItemName, _ = flags.GetString("item")
	req.Unit, _ = flags.GetString("unit")
	req.TradeID, _ = flags.GetString("trade")
	req.Currency, _ = flags.GetString("currency")
	req.Location, _ = flags.GetString("location")
	req.Specs, _ = flags.GetString("specs")
	req.ContextSize, _ = flags.GetInt("k")
	req.DecayMonths, _ = flags.GetInt("decay-months")
	if flags.Changed("quantity") {
		qty, _ := flags.GetFloat64("quantity")
		req.Quantity = &qty
	}
	attempts, _ := flags.GetInt("attempts")
	save, _ := flags.GetBool("save")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var writer service.HistoryWriter
	if save {
		w, ok := store.(service.HistoryWriter)
		if !ok {
			return fmt.Errorf("--save requires the sqlite store driver, not %q", cfg.Store.Driver)
		}
		writer = w
	}

	client, err := initLLMClient(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeClient(client)

	engine := estimate.NewEngine(store, client, slog.Default(), cfg.EngineOptions())

	var result *model.EstimateResult
	err = common.WithRetry(ctx, func() error {
		var estErr error
		result, estErr = engine.Estimate(ctx, req)
		return estErr
	}, service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	})
	if err != nil {
		if details := common.Details(err); details != "" {
			slog.Error("Estimate failed", "details", details)
		}
		return err
	}

	if writer != nil {
		rate := result.UnitRate
		rec := &model.HistoricalRecord{
			ItemName: result.Inputs.ItemName,
			Unit:     result.Inputs.Unit,
			TradeID:  result.Inputs.TradeID,
			Currency: result.Currency,
			AIRate:   &rate,
		}
		if err := writer.SaveRecord(ctx, rec); err != nil {
			return fmt.Errorf("failed to save estimate: %w", err)
		}
		slog.Info("Saved estimate to history", "id", rec.ID, "ai_rate", rate)
	}

	return printJSON(cmd.OutOrStdout(), result)
}
