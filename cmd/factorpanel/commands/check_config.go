package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorpanel/internal/pipelineconfig"
	"github.com/wonny/factorpanel/pkg/config"
	"github.com/wonny/factorpanel/pkg/database"
)

// checkConfigCmd represents the check-config command
var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "설정 검증 (환경변수 + 팩터 YAML)",
	Long: `환경변수 설정과 팩터 파라미터 YAML 을 검증합니다.

이 명령어는:
- .env / 환경변수 로드 및 검증
- 팩터 YAML 파싱 (알 수 없는 필드는 실패)
- 파라미터 범위 검증 및 설정 해시 출력
- --ping 시 데이터베이스 연결 확인

Example:
  go run ./cmd/factorpanel check-config --factors config/factors.yaml
  go run ./cmd/factorpanel check-config --ping`,
	RunE: runCheckConfig,
}

var checkPing bool

func init() {
	rootCmd.AddCommand(checkConfigCmd)

	checkConfigCmd.Flags().BoolVar(&checkPing, "ping", false, "also ping the database (postgres source)")
}

func runCheckConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Factor Panel Config Check ===")

	cfg, err := config.Load()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess(fmt.Sprintf("Environment loaded (ENV: %s, source: %s)", cfg.Env, cfg.Pipeline.Source))

	factorCfg, hash, err := loadFactorConfig(cfg)
	if err != nil {
		var verr pipelineconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(fmt.Sprintf("Factor config invalid at %s: %s", verr.Field, verr.Message))
		} else {
			PrintError(err.Error())
		}
		return err
	}
	PrintSuccess("Factor config valid")
	PrintKeyValue("Config ID", factorCfg.Meta.ConfigID, 18)
	PrintKeyValue("Hash", hash, 18)
	PrintKeyValue("Factors", fmt.Sprintf("%v", factorCfg.Factors), 18)
	PrintKeyValue("Momentum window", fmt.Sprintf("%d", factorCfg.Momentum.TrailingWindow), 18)
	PrintKeyValue("Size percentiles", fmt.Sprintf("%.2f ~ %.2f", factorCfg.Size.LowerPercentile, factorCfg.Size.UpperPercentile), 18)
	PrintKeyValue("Residualize", fmt.Sprintf("%v", factorCfg.Estimator.ResidualizeStyles), 18)

	if !checkPing || cfg.Pipeline.Source != config.SourcePostgres {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	status := db.HealthCheck(ctx)
	if !status.Healthy {
		PrintError("Database unhealthy: " + status.Error)
		return fmt.Errorf("database unhealthy: %s", status.Error)
	}
	PrintSuccess(fmt.Sprintf("Database reachable (%s, %d conns)", formatDuration(status.ResponseTime), status.TotalConns))
	return nil
}
