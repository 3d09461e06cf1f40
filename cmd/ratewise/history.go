package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratewise/ratewise/internal/estimate"
	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and seed the historical estimates store",
	}

	cmd.AddCommand(historyAddCmd())
	cmd.AddCommand(historySearchCmd())

	return cmd
}

func historyAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a priced item to the local history store",
		Example: `  ratewise history add --item "Ceramic Floor Tiling" --unit Sqm --final-rate 130 --currency EGP
  ratewise history add --item "Gypsum ceiling" --unit Sqm --ai-rate 95 --date 2024-11-02`,
		RunE: runHistoryAdd,
	}

	cmd.Flags().String("item", "", "work item name (required)")
	cmd.Flags().String("unit", "", "unit of measure (required)")
	cmd.Flags().String("trade", "", "trade identifier")
	cmd.Flags().String("currency", "", "currency code")
	cmd.Flags().Float64("final-rate", 0, "accepted rate")
	cmd.Flags().Float64("ai-rate", 0, "model-suggested rate")
	cmd.Flags().String("date", "", "creation date (YYYY-MM-DD, default now)")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("unit")

	return cmd
}

func runHistoryAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	rec := &model.HistoricalRecord{}
	rec.ItemName, _ = flags.GetString("item")
	rec.Unit, _ = flags.GetString("unit")
	rec.TradeID, _ = flags.GetString("trade")
	rec.Currency, _ = flags.GetString("currency")
	if flags.Changed("final-rate") {
		v, _ := flags.GetFloat64("final-rate")
		rec.FinalRate = &v
	}
	if flags.Changed("ai-rate") {
		v, _ := flags.GetFloat64("ai-rate")
		rec.AIRate = &v
	}
	if date, _ := flags.GetString("date"); date != "" {
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", date, err)
		}
		rec.CreatedAt = t
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	writer, ok := store.(service.HistoryWriter)
	if !ok {
		return fmt.Errorf("history add requires the sqlite store driver, not %q", cfg.Store.Driver)
	}
	if err := writer.SaveRecord(ctx, rec); err != nil {
		return err
	}

	slog.Info("Added historical record", "id", rec.ID, "item", rec.ItemName, "unit", rec.Unit)
	return printJSON(cmd.OutOrStdout(), rec)
}

func historySearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Show the historical context and baseline an estimate would use",
		RunE:  runHistorySearch,
	}

	cmd.Flags().String("item", "", "work item name (required)")
	cmd.Flags().String("unit", "", "unit of measure (required)")
	cmd.Flags().String("trade", "", "trade identifier")
	cmd.Flags().Int("k", 0, "number of records in the top context (default from estimate.default_k)")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("unit")

	return cmd
}

// searchResult is what history search prints.
type searchResult struct {
	Baseline   *float64                 `json:"baseline"`
	TopContext []model.HistoricalRecord `json:"top_context"`
	Population int                      `json:"population"`
	FetchLimit int                      `json:"fetch_limit"`
}

func runHistorySearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	item, _ := flags.GetString("item")
	unit, _ := flags.GetString("unit")
	trade, _ := flags.GetString("trade")
	k, _ := flags.GetInt("k")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if k < 1 {
		k = cfg.Estimate.DefaultK
	}
	k = min(k, cfg.Estimate.MaxK)

	store, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	hist, err := estimate.NewRetriever(store).Retrieve(ctx, item, unit, trade, k)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), searchResult{
		Baseline:   estimate.ComputeBaseline(hist.Population),
		TopContext: hist.Top,
		Population: len(hist.Population),
		FetchLimit: estimate.FetchLimit(k),
	})
}
