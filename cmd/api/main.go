package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mydailysportsreport/whatsapp-bot/cmd/mainconfig"
	"github.com/mydailysportsreport/whatsapp-bot/internal/api/router"
	appconfig "github.com/mydailysportsreport/whatsapp-bot/internal/config"
	"github.com/mydailysportsreport/whatsapp-bot/internal/conversation"
	"github.com/mydailysportsreport/whatsapp-bot/internal/dedup"
	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
	"github.com/mydailysportsreport/whatsapp-bot/internal/http/handlers"
	"github.com/mydailysportsreport/whatsapp-bot/internal/intent"
	"github.com/mydailysportsreport/whatsapp-bot/internal/notify"
	"github.com/mydailysportsreport/whatsapp-bot/internal/observability/metrics"
	"github.com/mydailysportsreport/whatsapp-bot/internal/reports"
	"github.com/mydailysportsreport/whatsapp-bot/internal/session"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting mysportsreport whatsapp bot",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	botMetrics := metrics.NewBotMetrics(prometheus.DefaultRegisterer)

	// Intent extraction via Bedrock.
	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	bedrockClient := intent.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
	extractor := intent.NewExtractor(bedrockClient, cfg.BedrockModelID, int32(cfg.BedrockMaxTokens), logger)

	// Subscriber directory.
	dir, err := directory.NewSupabase(directory.SupabaseConfig{
		BaseURL:    cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    cfg.DispatchTimeout,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build supabase client", "error", err)
		os.Exit(1)
	}
	var dirClient directory.Client = dir

	// Dedup cache: Redis when configured, otherwise in-process.
	var dedupCache dedup.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		dedupCache = dedup.NewRedis(redis.NewClient(opts), cfg.DedupTTL, logger)
		logger.Info("dedup cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		dedupCache = dedup.NewMemory(cfg.DedupTTL)
	}

	// Outbound channels.
	whatsapp := notify.NewWhatsApp(notify.WhatsAppConfig{
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneID,
		BaseURL:       cfg.WhatsAppGraphBaseURL,
		Timeout:       cfg.DispatchTimeout,
		Logger:        logger,
	})
	var operatorEmail notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		operatorEmail = sg
	}
	operator := notify.NewService(whatsapp, operatorEmail, cfg.AdminPhone, cfg.OperatorEmail, logger)

	trigger := reports.NewGitHubTrigger(reports.GitHubConfig{
		Token:    cfg.GitHubToken,
		Repo:     cfg.GitHubRepo,
		Workflow: cfg.GitHubWorkflow,
		Timeout:  cfg.DispatchTimeout,
		Logger:   logger,
	})

	// Conversation engine.
	sessions := session.NewStore(
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxHistory(cfg.MaxHistory),
	)
	dispatcher := conversation.NewDispatcher(conversation.DispatcherConfig{
		Directory:   dirClient,
		Trigger:     trigger,
		Operator:    operator,
		SettingsURL: cfg.SettingsURL,
		Timeout:     cfg.DispatchTimeout,
		Metrics:     botMetrics,
		Logger:      logger,
	})
	orchestrator := conversation.NewOrchestrator(conversation.OrchestratorConfig{
		Dedup:          dedupCache,
		Sessions:       sessions,
		Extractor:      extractor,
		Dispatcher:     dispatcher,
		Directory:      dirClient,
		ExtractTimeout: cfg.ExtractorTimeout,
		LookupTimeout:  cfg.DispatchTimeout,
		Metrics:        botMetrics,
		Logger:         logger,
	})

	// HTTP surface.
	webhook := handlers.NewWebhookHandler(handlers.WebhookConfig{
		VerifyToken: cfg.WhatsAppVerifyToken,
		Handler:     orchestrator,
		Sender:      whatsapp,
		Logger:      logger,
	})
	triggerReport := handlers.NewTriggerReportHandler(trigger, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		Webhook:         webhook,
		TriggerReport:   triggerReport,
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
