package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

// DefaultTable is the name of the historical estimates table.
const DefaultTable = "estimates"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// namePattern builds the LIKE pattern matching every token in order,
// e.g. ["ceramic", "floor"] -> "%ceramic%floor%".
func namePattern(tokens []string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		b.WriteString(likeEscaper.Replace(tok))
		b.WriteByte('%')
	}
	return b.String()
}

// placeholderFunc renders the n-th (1-based) bind parameter.
type placeholderFunc func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// buildFindSimilar renders the similarity query for a driver dialect.
func buildFindSimilar(table, likeOp string, ph placeholderFunc, casts bool, q service.HistoryQuery) (string, []any) {
	cols := "id, item_name, unit, COALESCE(trade_id, ''), final_rate, ai_rate, COALESCE(currency, ''), created_at"
	if casts {
		cols = "id::text, item_name, unit, COALESCE(trade_id::text, ''), final_rate::float8, ai_rate::float8, COALESCE(currency, ''), created_at"
	}

	var (
		qb   strings.Builder
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	fmt.Fprintf(&qb, "SELECT %s FROM %s WHERE unit = %s", cols, table, next(q.Unit))
	if q.TradeID != "" {
		col := "trade_id"
		if casts {
			col = "trade_id::text"
		}
		fmt.Fprintf(&qb, " AND %s = %s", col, next(q.TradeID))
	}
	fmt.Fprintf(&qb, ` AND item_name %s %s ESCAPE '\'`, likeOp, next(namePattern(q.Tokens)))
	fmt.Fprintf(&qb, " ORDER BY created_at DESC LIMIT %s", next(q.Limit))

	return qb.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.HistoricalRecord, error) {
	var (
		rec       model.HistoricalRecord
		finalRate sql.NullFloat64
		aiRate    sql.NullFloat64
		createdAt time.Time
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ItemName,
		&rec.Unit,
		&rec.TradeID,
		&finalRate,
		&aiRate,
		&rec.Currency,
		&createdAt,
	); err != nil {
		return model.HistoricalRecord{}, err
	}
	if finalRate.Valid {
		v := finalRate.Float64
		rec.FinalRate = &v
	}
	if aiRate.Valid {
		v := aiRate.Float64
		rec.AIRate = &v
	}
	rec.CreatedAt = createdAt.UTC()
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]model.HistoricalRecord, error) {
	defer func() { _ = rows.Close() }()

	var records []model.HistoricalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate estimates: %w", err)
	}
	return records, nil
}
