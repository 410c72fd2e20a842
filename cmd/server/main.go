package main

import (
	"fmt"
	"log"

	"billclarity/internal/analyzer"
	claudeanalyzer "billclarity/internal/analyzer/claude"
	geminianalyzer "billclarity/internal/analyzer/gemini"
	"billclarity/internal/config"
	"billclarity/internal/directory"
	"billclarity/internal/email/noop"
	"billclarity/internal/email/ses"
	"billclarity/internal/handler"
	"billclarity/internal/logger"
	"billclarity/internal/port"
	"billclarity/internal/router"
	"billclarity/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Fail fast on a missing provider credential; a server that cannot reach
	// the model serves nothing useful.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Register model providers
	analyzer.RegisterProvider("gemini", func(c *config.AnalyzerProviderConfig) (port.BillAnalyzer, error) {
		return geminianalyzer.NewAnalyzer(c), nil
	})
	analyzer.RegisterProvider("claude", func(c *config.AnalyzerProviderConfig) (port.BillAnalyzer, error) {
		return claudeanalyzer.NewAnalyzer(c), nil
	})

	billAnalyzer, err := buildAnalyzer(&cfg.Analyzer)
	if err != nil {
		return fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	emailSender, err := buildEmailSender(&cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	// Static hospital directory, loaded once
	store, err := directory.NewStore()
	if err != nil {
		return fmt.Errorf("failed to load hospital directory: %w", err)
	}

	// Initialize services
	analysisSvc := service.NewAnalysisService(billAnalyzer, emailSender, &cfg.Upload)

	// Initialize handlers
	analysisH := handler.NewAnalysisHandler(analysisSvc)
	eligibilityH := handler.NewEligibilityHandler()
	hospitalH := handler.NewHospitalHandler(store)
	healthH := handler.NewHealthHandler(cfg)

	// Setup router
	r := router.Setup(cfg.CORS.AllowedOrigins, analysisH, eligibilityH, hospitalH, healthH)

	logger.GetLogger().Infow("server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// buildAnalyzer assembles the ordered provider chain: primary first, then the
// optional secondary as the single fallback tier.
func buildAnalyzer(cfg *config.AnalyzerConfig) (port.BillAnalyzer, error) {
	primary, err := analyzer.NewAnalyzer(&cfg.Primary)
	if err != nil {
		return nil, err
	}

	analyzers := []port.BillAnalyzer{primary}
	names := []string{cfg.Primary.Provider}

	if sec := cfg.SecondaryConfig(); sec != nil {
		secondary, err := analyzer.NewAnalyzer(sec)
		if err != nil {
			return nil, err
		}
		analyzers = append(analyzers, secondary)
		names = append(names, sec.Provider)
	}

	return analyzer.NewFallbackAnalyzer(analyzers, names), nil
}

func buildEmailSender(cfg *config.EmailConfig) (port.EmailSender, error) {
	switch cfg.Provider {
	case "ses":
		return ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName)
	default:
		return noop.NewNoopSender(), nil
	}
}
