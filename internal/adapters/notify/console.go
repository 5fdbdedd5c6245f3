// Package notify renders cycle results for the operator terminal.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/acalderon/weathertrader/internal/domain"
)

// Console implements ports.Notifier on a terminal.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole builds a notifier writing to stdout. table selects the full
// table rendering over the compact one-liner.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter builds a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// MonitorReport prints the latest monitor pass over open positions.
func (c *Console) MonitorReport(_ context.Context, checks []domain.MonitorCheck) error {
	now := time.Now().Format("15:04:05")
	if len(checks) == 0 {
		fmt.Fprintf(c.out, "[%s] no open positions\n", now)
		return nil
	}

	if !c.table {
		c.printMonitorCompact(now, checks)
		return nil
	}

	exits := 0
	for _, ch := range checks {
		if ch.Action == domain.ActionExit {
			exits++
		}
	}
	fmt.Fprintf(c.out, "\n[%s] monitor — %d positions, %d exits\n", now, len(checks), exits)

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Price", "PnL", "PnL%", "Edge", "Action", "Detail")
	for _, ch := range checks {
		table.Append(
			truncate(ch.MarketName, 38),
			fmt.Sprintf("%.2f", ch.CurrentPrice),
			fmt.Sprintf("$%.2f", ch.PnL),
			fmt.Sprintf("%+.1f%%", ch.PnLPct),
			edgeLabel(ch),
			actionLabel(ch),
			truncate(ch.Detail, 40),
		)
	}
	table.Render()
	return nil
}

func (c *Console) printMonitorCompact(now string, checks []domain.MonitorCheck) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d pos", now, len(checks))
	for _, ch := range checks {
		fmt.Fprintf(&sb, " | %s %.2f %+.1f%% %s",
			truncate(ch.MarketName, 20), ch.CurrentPrice, ch.PnLPct, actionLabel(ch))
	}
	fmt.Fprintln(c.out, sb.String())
}

// ScanReport prints scan candidates with their screen outcomes, qualifying
// markets first.
func (c *Console) ScanReport(_ context.Context, candidates []domain.Candidate) error {
	now := time.Now().Format("15:04:05")
	qualified := 0
	for _, cd := range candidates {
		if cd.Qualifies() {
			qualified++
		}
	}

	if !c.table {
		fmt.Fprintf(c.out, "[%s] scan — %d markets, %d qualify\n", now, len(candidates), qualified)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] scan — %d markets, %d qualify\n", now, len(candidates), qualified)
	if len(candidates) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Side", "Price", "Forecast", "Conf", "Edge", "Depth$", "Screen")
	for _, cd := range candidates {
		screen := "PASS"
		if !cd.Qualifies() {
			screen = cd.RejectedBy
		}
		table.Append(
			domain.TruncateQuestion(cd.Market.Question, cd.Market.ConditionID, 38),
			string(cd.Side),
			fmt.Sprintf("%.2f", cd.Price),
			cd.Ensemble.Consensus.String(),
			fmt.Sprintf("%.2f", cd.Ensemble.Confidence),
			fmt.Sprintf("%.1f", cd.Edge),
			fmt.Sprintf("%.0f", cd.BidDepth),
			screen,
		)
	}
	table.Render()
	return nil
}

func actionLabel(ch domain.MonitorCheck) string {
	label := string(ch.Action)
	if ch.Action == domain.ActionExit {
		label = fmt.Sprintf("EXIT:%s", ch.ExitReason)
	}
	if ch.Strengthen {
		label += " [+]"
	}
	return label
}

func edgeLabel(ch domain.MonitorCheck) string {
	if !ch.EdgeKnown {
		return "?"
	}
	return fmt.Sprintf("%.1f", ch.Edge)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
