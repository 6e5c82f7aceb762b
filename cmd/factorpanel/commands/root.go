package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	factorsFile string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "factorpanel",
	Short: "Factor panel - 팩터 패널 구축 및 팩터 수익률 추정",
	Long: `Factor Panel CLI

가격, 재무, 섹터 데이터를 (date, symbol) 패널로 정렬하고
스타일 팩터 점수와 팩터 수익률을 계산합니다.

  S0 수집 → S1 수익률 → S2 재무 정렬 → S3 섹터 인코딩 → S4 병합 → S5 팩터

Usage:
  go run ./cmd/factorpanel [command]

Examples:
  go run ./cmd/factorpanel build --symbols AAPL,MSFT,XOM --from 2024-01-01 --to 2024-06-30
  go run ./cmd/factorpanel api
  go run ./cmd/factorpanel check-config --factors config/factors.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&factorsFile, "factors", "", "factor parameter YAML (default: PANEL_FACTORS_FILE or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
