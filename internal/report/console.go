// Package report prints dashboard widgets to a terminal.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/services/generator"
	"github.com/vadiminshakov/helios/pkg/indicators"
)

// balanceEMAPeriod smoothing window for the balance history line.
const balanceEMAPeriod = 5

// Console renders one frame of every widget.
type Console struct {
	out io.Writer
}

// NewConsole creates a console report writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

// Print renders every widget for the instant, followed by the balance history summary.
func (c *Console) Print(now time.Time, acct domain.Account, opts generator.Options, history []domain.BalanceSnapshotRecord) error {
	fmt.Fprintf(c.out, "[%s] helios snapshot, balance %s %s\n", now.UTC().Format(time.RFC3339), acct.Balance.StringFixed(2), acct.Currency)

	for _, kind := range domain.AllMetricKinds {
		fn, ok := generator.For(kind)
		if !ok {
			continue
		}
		if err := c.printState(fn(now, acct, opts)); err != nil {
			return fmt.Errorf("render %s: %w", kind, err)
		}
	}

	c.printHistory(history)
	return nil
}

func (c *Console) printState(state domain.WidgetState) error {
	title := state.Kind.Title()
	if state.Period != "" {
		title += " (" + state.Period.String() + ")"
	}
	if state.View != "" {
		title += " [" + string(state.View) + "]"
	}
	fmt.Fprintf(c.out, "\n== %s ==\n", title)

	switch {
	case state.Portfolio != nil:
		p := state.Portfolio
		fmt.Fprintf(c.out, "  equity %s %s, day %s (%.2f%%), available %s\n",
			p.Equity.StringFixed(2), p.Currency, p.DayChange.StringFixed(2), p.DayChangePct, p.Available.StringFixed(2))
		return nil
	case len(state.Insights) > 0:
		return c.printInsights(state.Insights)
	default:
		return c.printMetrics(state.Metrics)
	}
}

func (c *Console) printMetrics(metrics []domain.GeneratedMetric) error {
	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Current", "Benchmark", "Pctl", "Trend", "Notional")

	for _, m := range metrics {
		notional := "-"
		if !m.Notional.IsZero() {
			notional = m.Notional.StringFixed(2)
		}
		if err := table.Append(
			m.Name,
			fmt.Sprintf("%.2f%s", m.Current, m.Unit),
			fmt.Sprintf("%.2f%s", m.Benchmark, m.Unit),
			fmt.Sprintf("%.0f", m.Percentile),
			string(m.Trend),
			notional,
		); err != nil {
			return err
		}
	}

	return table.Render()
}

func (c *Console) printInsights(insights []domain.Insight) error {
	table := tablewriter.NewWriter(c.out)
	table.Header("Category", "Title", "Confidence", "Impact")

	for _, in := range insights {
		if err := table.Append(in.Category, in.Title, fmt.Sprintf("%.0f%%", in.Confidence), string(in.Impact)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	for _, in := range insights {
		fmt.Fprintf(c.out, "  - %s: %s\n", in.Title, in.Message)
	}
	return nil
}

func (c *Console) printHistory(history []domain.BalanceSnapshotRecord) {
	if len(history) == 0 {
		fmt.Fprintln(c.out, "\nno balance history yet")
		return
	}

	balances := make([]decimal.Decimal, 0, len(history))
	for _, rec := range history {
		d, err := decimal.NewFromString(rec.Snapshot.Balance)
		if err != nil {
			continue
		}
		balances = append(balances, d)
	}
	if len(balances) == 0 {
		fmt.Fprintln(c.out, "\nno balance history yet")
		return
	}

	last := history[len(history)-1].Snapshot
	fmt.Fprintf(c.out, "\nbalance history: %d snapshots, last %s at %s\n",
		len(balances), last.Balance, last.Timestamp.UTC().Format(time.RFC3339))

	ema, err := indicators.EMADecimal(balances, balanceEMAPeriod)
	if err != nil {
		// short history
		return
	}
	fmt.Fprintf(c.out, "balance EMA(%d): %s\n", balanceEMAPeriod, ema[len(ema)-1].StringFixed(2))
}
