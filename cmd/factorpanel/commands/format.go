package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// RunMetadata holds what a build was asked to do
type RunMetadata struct {
	Source     string
	From       string
	To         string
	Symbols    string // Optional
	ConfigHash string
}

// PrintRunHeader prints a formatted run header
func PrintRunHeader(meta RunMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Factor Panel Build")
	PrintSeparator()
	fmt.Printf("  Source    : %s\n", meta.Source)
	fmt.Printf("  Period    : %s ~ %s\n", meta.From, meta.To)
	if meta.Symbols != "" {
		fmt.Printf("  Symbols   : %s\n", meta.Symbols)
	} else {
		fmt.Println("  Symbols   : (active universe)")
	}
	fmt.Printf("  Config    : %s\n", shortHash(meta.ConfigHash))
	PrintSeparator()
}

// PrintRunSummary prints stage counts, panel quality and factor outputs
func PrintRunSummary(result *pipeline.Result) {
	fmt.Println()
	widths := []int{6, 30, 10, 10, 10}
	PrintTableHeader([]string{"Stage", "Description", "Input", "Output", "ms"}, widths)
	for _, s := range result.Stages {
		PrintTableRow([]string{
			s.Stage.ShortName(),
			s.Stage.Description(),
			strconv.Itoa(s.InputCount),
			strconv.Itoa(s.OutputCount),
			strconv.FormatInt(s.Duration, 10),
		}, widths)
	}

	fmt.Println()
	fmt.Println("📊 Panel")
	d := result.Panel.Diagnostics
	PrintKeyValue("Rows", strconv.Itoa(result.Panel.Len()), 22)
	PrintKeyValue("Sectors", fmt.Sprintf("%v", result.Panel.Sectors.Labels()), 22)
	PrintKeyValue("Lost (no fundamentals)", strconv.Itoa(d.LostAtFundamentalJoin), 22)
	PrintKeyValue("Lost (no sector)", strconv.Itoa(d.LostAtSectorJoin), 22)
	PrintKeyValue("Zero-filled returns", strconv.Itoa(result.ZeroFilledReturns), 22)

	if q := result.Quality; q != nil {
		fmt.Println()
		fmt.Println("🔎 Quality")
		PrintKeyValue("Score", fmt.Sprintf("%.3f", q.QualityScore), 22)
		PrintKeyValue("Symbols", fmt.Sprintf("%d / %d", q.ValidSymbols, q.TotalSymbols), 22)
		keys := make([]string, 0, len(q.Coverage))
		for k := range q.Coverage {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			PrintKeyValue("Coverage "+k, fmt.Sprintf("%.1f%%", q.Coverage[k]*100), 22)
		}
		if !q.Passed {
			PrintWarning("Panel quality below threshold (report only)")
		}
	}

	if f := result.FactorRun; f != nil {
		fmt.Println()
		fmt.Println("📈 Factors")
		PrintKeyValue("Factors", fmt.Sprintf("%v", contracts.FactorIDStrings(result.Factors)), 22)
		PrintKeyValue("Regression rows", strconv.Itoa(f.RegressionRows), 22)
		PrintKeyValue("Dropped rows", strconv.Itoa(f.DroppedRows), 22)
		PrintKeyValue("Factor returns", strconv.Itoa(len(f.FactorReturns.Rows)), 22)
		PrintKeyValue("Residuals", strconv.Itoa(len(f.Residuals.Rows)), 22)
		if len(f.SkippedDates) > 0 {
			dates := make([]string, len(f.SkippedDates))
			for i, d := range f.SkippedDates {
				dates[i] = d.Format(contracts.DateLayout)
			}
			PrintWarning(fmt.Sprintf("%d dates skipped by the estimator: %v", len(dates), dates))
		}
	}

	if len(result.SourceFailures) > 0 {
		fmt.Println()
		PrintWarning(fmt.Sprintf("%d symbols dropped (subset policy)", len(result.SourceFailures)))
		for _, sf := range result.SourceFailures {
			fmt.Printf("   • %s [%s] %s\n", sf.Symbol, sf.Source, sf.Error)
		}
	}
}

// PrintRunCompletion prints run completion message
func PrintRunCompletion(runID string, duration float64) {
	fmt.Println()
	fmt.Printf("✅ Run %s completed in %.2fs\n", runID, duration)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// formatDuration rounds a duration for display
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
