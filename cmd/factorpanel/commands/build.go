package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/internal/pipeline"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "패널 구축 및 팩터 실행 (S0 → S5)",
	Long: `요청 유니버스와 기간에 대해 패널을 구축하고 팩터를 계산합니다.

이 명령어는:
- 가격 / 재무 / 섹터 수집 (S0)
- forward return, 재무 비율, 섹터 더미 생성 (S1 ~ S3)
- 패널 병합 및 품질 스냅샷 (S4)
- 스타일 점수와 팩터 수익률 추정 (S5)

--symbols 를 생략하면 postgres 소스의 활성 종목 전체를 사용합니다.

Example:
  go run ./cmd/factorpanel build --symbols AAPL,MSFT,XOM,CVX --from 2024-01-01 --to 2024-06-30
  go run ./cmd/factorpanel build --from 2024-01-01 --to 2024-03-31 --only size,value --output run.json`,
	RunE: runBuild,
}

var (
	buildSymbols []string
	buildFrom    string
	buildTo      string
	buildOnly    []string
	buildOutput  string
	buildRows    bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringSliceVar(&buildSymbols, "symbols", nil, "comma separated symbols (default: active universe)")
	buildCmd.Flags().StringVar(&buildFrom, "from", "", "start date YYYY-MM-DD (default: 3 months before --to)")
	buildCmd.Flags().StringVar(&buildTo, "to", "", "end date YYYY-MM-DD (default: today)")
	buildCmd.Flags().StringSliceVar(&buildOnly, "only", nil, "factor subset, e.g. momentum,size (default: factor config)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "write the JSON result to this file (- for stdout)")
	buildCmd.Flags().BoolVar(&buildRows, "rows", false, "include panel rows in the JSON result")
}

func runBuild(cmd *cobra.Command, args []string) error {
	from, to, err := parseRange(buildFrom, buildTo)
	if err != nil {
		return err
	}

	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Pipeline.Timeout)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintRunHeader(RunMetadata{
		Source:     cfg.Pipeline.Source,
		From:       from.Format(contracts.DateLayout),
		To:         to.Format(contracts.DateLayout),
		Symbols:    strings.Join(buildSymbols, ","),
		ConfigHash: a.configHash,
	})

	start := time.Now()
	result, err := a.runner.Run(ctx, pipeline.Request{
		Symbols: buildSymbols,
		From:    from,
		To:      to,
		Factors: buildOnly,
	})
	if err != nil {
		stage, _ := contracts.StageOf(err)
		PrintError(fmt.Sprintf("%s failed at %s: %v", contracts.KindOf(err), stage.ShortName(), err))
		return err
	}

	PrintRunSummary(result)

	if buildOutput != "" {
		if !buildRows {
			trimmed := *result.Panel
			trimmed.Rows = nil
			result.Panel = &trimmed
		}
		if err := writeJSON(buildOutput, result); err != nil {
			return err
		}
	}

	PrintRunCompletion(result.RunID, time.Since(start).Seconds())
	return nil
}

// parseRange parses CLI dates, defaulting to the last three months
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	to := contracts.TruncateDay(time.Now())
	if toStr != "" {
		t, err := time.Parse(contracts.DateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q (expected YYYY-MM-DD)", toStr)
		}
		to = t
	}

	from := to.AddDate(0, -3, 0)
	if fromStr != "" {
		f, err := time.Parse(contracts.DateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", fromStr)
		}
		from = f
	}
	return from, to, nil
}

func writeJSON(path string, v interface{}) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if path != "-" {
		PrintSuccess(fmt.Sprintf("Result written to %s", path))
	}
	return nil
}
