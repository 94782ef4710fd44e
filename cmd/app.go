package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/teemow/mailpilot/internal/agent"
	"github.com/teemow/mailpilot/internal/categorize"
	"github.com/teemow/mailpilot/internal/compose"
	"github.com/teemow/mailpilot/internal/config"
	"github.com/teemow/mailpilot/internal/credential"
	"github.com/teemow/mailpilot/internal/gmail"
	"github.com/teemow/mailpilot/internal/google"
	"github.com/teemow/mailpilot/internal/imapmail"
	"github.com/teemow/mailpilot/internal/instrumentation"
	"github.com/teemow/mailpilot/internal/llm"
	"github.com/teemow/mailpilot/internal/logging"
	"github.com/teemow/mailpilot/internal/mailbox"
	"github.com/teemow/mailpilot/internal/memory"
	"github.com/teemow/mailpilot/internal/resolver"
	"github.com/teemow/mailpilot/internal/server"
	"github.com/teemow/mailpilot/internal/tools/common"
	"github.com/teemow/mailpilot/internal/tools/mail_tools"
)

// app holds everything a command needs for one process.
type app struct {
	cfg           *config.Config
	logger        *slog.Logger
	provider      *instrumentation.Provider
	metricsServer *server.MetricsServer
	store         *memory.Store
	models        *llm.Client
	caps          []common.Capability
}

func newLogger() *slog.Logger {
	logger := logging.New(os.Stderr, flags.debug)
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads the config file and applies flag overrides and keyring
// secrets.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.userID != "" {
		cfg.UserID = flags.userID
	}
	if flags.metricsAddr != "" {
		cfg.MetricsAddr = flags.metricsAddr
	}

	if cfg.Model.APIKey == "" || (cfg.Backend == config.BackendIMAP && cfg.IMAP.Password == "") {
		secrets, err := credential.Open()
		if err != nil {
			logger.Debug("keyring unavailable", logging.Err(err))
		} else {
			cfg.ResolveSecrets(secrets)
		}
	}
	return cfg, nil
}

// newApp wires the mailbox, generators and capabilities. requireModel fails
// early when no model API key is configured.
func newApp(ctx context.Context, requireModel bool) (*app, error) {
	logger := newLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", flags.configPath, err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, provider: provider}

	if cfg.MetricsAddr != "" {
		if err := a.startMetricsServer(cfg.MetricsAddr); err != nil {
			a.Close()
			return nil, err
		}
	}

	metrics := provider.Metrics()
	mb, err := newMailbox(ctx, cfg, metrics, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Model.APIKey != "" {
		a.models, err = llm.NewClient(ctx, cfg.Model.APIKey, metrics, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
	} else if requireModel {
		a.Close()
		return nil, fmt.Errorf("%w: set model.api_key, GEMINI_API_KEY or run 'mailpilot auth secret %s'", llm.ErrNoAPIKey, credential.GeminiAPIKey)
	} else {
		logger.Info("no model API key configured: categorization uses rules and replies use the fixed fallback body")
	}

	// Interfaces stay nil without a model client so the fallbacks apply.
	var composeGen llm.TextGenerator
	var classifyGen llm.JSONGenerator
	if a.models != nil {
		composeGen = a.models.Model(llm.ModelConfig{Model: cfg.Model.Synthesis, Temperature: llm.DefaultComposeTemperature, Purpose: instrumentation.PurposeCompose})
		classifyGen = a.models.Model(llm.ModelConfig{Model: cfg.Model.Classification, Temperature: llm.DefaultClassifyTemperature, Purpose: instrumentation.PurposeClassify})
	}

	a.store = memory.New(logger)
	a.caps = mail_tools.Capabilities(mail_tools.Deps{
		Mailbox: mb,
		Store:   a.store,
		Categorizer: categorize.New(classifyGen, categorize.Options{
			MaxGenerativeBatch: cfg.Categorize.MaxGenerativeBatch,
			Metrics:            metrics,
			Logger:             logger,
		}),
		Resolver: resolver.New(a.store),
		Composer: compose.New(composeGen, compose.Options{
			Signature: cfg.Compose.Signature,
			Metrics:   metrics,
			Logger:    logger,
		}),
		Backend: cfg.Backend,
		Metrics: metrics,
		Audit:   instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		Logger:  logger,
	})
	return a, nil
}

func newMailbox(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (mailbox.Mailbox, error) {
	switch cfg.Backend {
	case config.BackendIMAP:
		return imapmail.New(imapmail.Config{
			Host:     cfg.IMAP.Host,
			Port:     cfg.IMAP.Port,
			Username: cfg.IMAP.Username,
			Password: cfg.IMAP.Password,
			Mailbox:  cfg.IMAP.Mailbox,
			SMTPHost: cfg.IMAP.SMTPHost,
			SMTPPort: cfg.IMAP.SMTPPort,
			From:     cfg.IMAP.From,
		}, imapmail.Options{Metrics: metrics, Logger: logger}), nil
	default:
		auth, err := newGoogleAuth(cfg)
		if err != nil {
			return nil, err
		}
		httpClient, err := auth.HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		return gmail.NewClient(ctx, httpClient, gmail.Options{Metrics: metrics, Logger: logger})
	}
}

func newGoogleAuth(cfg *config.Config) (*google.Auth, error) {
	conf, err := google.LoadConfig(cfg.Gmail.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return google.NewAuth(conf, cfg.Gmail.Account, "")
}

// newAgent builds the orchestrator on the dispatcher model.
func (a *app) newAgent() *agent.Agent {
	dispatcher := a.models.Model(llm.ModelConfig{
		Model:       a.cfg.Model.Dispatcher,
		Temperature: llm.DefaultDispatchTemperature,
		Purpose:     instrumentation.PurposeDispatch,
	})
	return agent.New(dispatcher, a.caps, agent.Options{MaxRounds: a.cfg.Model.MaxRounds, Logger: a.logger})
}

func (a *app) startMetricsServer(addr string) error {
	ms, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: a.provider,
		Logger:                  a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics server: %w", err)
	}
	go func() {
		if err := ms.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	a.metricsServer = ms
	return nil
}

// Close stops the metrics server and flushes telemetry.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}
	if a.provider != nil {
		if err := a.provider.Shutdown(ctx); err != nil {
			a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}
}
