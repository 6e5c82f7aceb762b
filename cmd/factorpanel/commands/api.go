package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorpanel/internal/api"
	"github.com/wonny/factorpanel/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 패널 구축 엔드포인트 제공
- Prometheus 메트릭 노출

Endpoints:
  GET  /health             - Health check
  GET  /metrics            - Prometheus metrics
  GET  /api/panel/config   - 팩터 설정 조회
  POST /api/panel/build    - 패널 구축 및 팩터 실행

Example:
  go run ./cmd/factorpanel api
  go run ./cmd/factorpanel api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Factor Panel API Server ===")

	// 1. Load config + logger
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 2. Wire pipeline
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := newApp(ctx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer a.Close()

	// 3. Create handler + router
	panelHandler := handlers.NewPanelHandler(a.runner, a.configHash, log)
	var metricsHandler http.Handler
	if a.metrics != nil {
		metricsHandler = a.metrics.Handler()
	}
	router := api.NewRouter(panelHandler, metricsHandler, log)

	// 4. Create server
	server := api.New(cfg, log, router)

	// 5. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if metricsHandler != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  GET  /api/panel/config")
	fmt.Println("  POST /api/panel/build")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
