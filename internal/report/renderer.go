package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer handles report template rendering
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new template renderer
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatMoney":   formatMoney,
		"formatPercent": formatPercent,
		"truncate":      truncate,
		"isNegative":    func(d decimal.Decimal) bool { return d.IsNegative() },
		"add":           func(a, b int) int { return a + b },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Renderer{templates: tmpl}, nil
}

// RenderSummary renders the summary report to HTML
func (r *Renderer) RenderSummary(w io.Writer, report *SummaryReport) error {
	return r.templates.ExecuteTemplate(w, "summary.html", report)
}

// RenderText writes the aging and job rollup as aligned plain-text tables
func RenderText(w io.Writer, report *SummaryReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "As of %s\n\n", report.AsOfDate)
	for _, ledger := range []LedgerSummary{report.AR, report.AP} {
		fmt.Fprintf(tw, "%s aging\t\t\t\t\t\n", strings.ToUpper(string(ledger.Ledger)))
		fmt.Fprintln(tw, "Bucket\tCount\tTotal Due\tRetainage\tCollectible\t")
		for _, b := range append(ledger.Buckets, ledger.Total) {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n",
				b.Bucket, b.Count,
				formatMoney(b.TotalDue), formatMoney(b.Retainage), formatMoney(b.Collectible))
		}
		fmt.Fprintln(tw, "\t\t\t\t\t")
	}

	j := report.Jobs
	fmt.Fprintln(tw, "Jobs\t\t\t\t\t")
	fmt.Fprintf(tw, "Open / Closed\t%d / %d\t\t\t\t\n", j.Open, j.Closed)
	fmt.Fprintf(tw, "Contract\t%s\t\t\t\t\n", formatMoney(j.RevisedContract))
	fmt.Fprintf(tw, "Earned\t%s\t\t\t\t\n", formatMoney(j.EarnedRevenue))
	fmt.Fprintf(tw, "Billed\t%s\t\t\t\t\n", formatMoney(j.Billed))
	fmt.Fprintf(tw, "Backlog\t%s\t\t\t\t\n", formatMoney(j.Backlog))
	fmt.Fprintf(tw, "Over/(Under) Billing\t%s\t\t\t\t\n", formatMoney(j.OverUnderBilling))
	fmt.Fprintf(tw, "Profit\t%s\t\t\t\t\n", formatMoney(j.Profit))
	fmt.Fprintf(tw, "Jobs with loss\t%d\t\t\t\t\n", j.JobsWithLoss)

	return tw.Flush()
}

// formatMoney formats an amount as currency, negatives in parentheses
func formatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	formatted := "$" + b.String() + "." + decPart

	if negative && formatted != "$0.00" {
		return "(" + formatted + ")"
	}
	return formatted
}

// formatPercent formats a percentage with one decimal
func formatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}

// truncate shortens a string with ellipsis
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
