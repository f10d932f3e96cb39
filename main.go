// agentd is an AI-agent backend. It serves a chat agent and a search agent
// over HTTP; the search agent can pause mid-run to ask the user structured
// questions and resumes when answers are posted back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"agentd/pkg/agent"
	"agentd/pkg/config"
	"agentd/pkg/logx"
	"agentd/pkg/metrics"
	"agentd/pkg/persistence"
	"agentd/pkg/server"
	"agentd/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		projectDir  = flag.String("project", ".", "Project directory holding .agentd/ config and data")
		host        = flag.String("host", "", "Override server bind host")
		port        = flag.Int("port", 0, "Override server port")
		profiles    = flag.String("profiles", "", "Agent profiles YAML file (overrides config)")
		dbPath      = flag.String("db", "", "SQLite database path (default <project>/.agentd/agentd.db)")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("agentd %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return nil
	}

	logger := logx.NewLogger("main")

	// Optional .env next to the working directory, same precedence as the
	// environment itself.
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env")
	}

	absProject, err := filepath.Abs(*projectDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}
	if err := config.LoadConfig(absProject); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loadSecrets(absProject, logger)

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if cfg.Logs != nil && cfg.Logs.BufferSize > 0 {
		logx.SetBufferSize(cfg.Logs.BufferSize)
	}

	// Apply flag overrides on local copies so the persisted config is untouched.
	serverCfg := *cfg.Server
	if *host != "" {
		serverCfg.Host = *host
	}
	if *port != 0 {
		serverCfg.Port = *port
	}
	agentCfg := *cfg.Agents
	if *profiles != "" {
		agentCfg.ProfilesPath = *profiles
	}
	cfg.Server = &serverCfg
	cfg.Agents = &agentCfg

	promptForMissingKeys(cfg, logger)

	sessionID := uuid.New().String()
	db := *dbPath
	if db == "" {
		db = filepath.Join(absProject, config.ProjectConfigDir, "agentd.db")
	}
	if err := os.MkdirAll(filepath.Dir(db), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := persistence.Initialize(db, sessionID); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = persistence.Close() }()

	var recorder metrics.Recorder = metrics.NewNoopRecorder()
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		recorder = metrics.NewPrometheusRecorder()
	}

	chatAgent, err := agent.NewChatAgent(cfg, recorder)
	if err != nil {
		return fmt.Errorf("failed to create chat agent: %w", err)
	}
	searchAgent, err := agent.NewSearchAgent(cfg, recorder)
	if err != nil {
		return fmt.Errorf("failed to create search agent: %w", err)
	}

	srv := server.New(&serverCfg, map[string]server.Runner{
		agent.ChatAgentName:   chatAgent,
		agent.SearchAgentName: searchAgent,
	}, persistence.Runs(), nil)

	if cfg.Metrics != nil && cfg.Metrics.PrometheusURL != "" {
		usage, err := metrics.NewQueryService(cfg.Metrics.PrometheusURL)
		if err != nil {
			logger.Warn("Usage reporting disabled: %v", err)
		} else {
			srv.SetUsageService(usage)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Force-exit if graceful shutdown stalls.
	go func() {
		<-ctx.Done()
		time.Sleep(time.Duration(config.GracefulShutdownTimeoutSec) * time.Second)
		logger.Error("Graceful shutdown timed out, forcing exit")
		os.Exit(1)
	}()

	logger.Info("agentd %s starting (session %s)", version.Version, sessionID)
	return srv.Start(ctx)
}

// loadSecrets decrypts the project secrets file when one exists and the
// process has a terminal to prompt for the password on.
func loadSecrets(projectDir string, logger *logx.Logger) {
	if !config.SecretsFileExists(projectDir) {
		return
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("Secrets file present but stdin is not a terminal; relying on environment variables")
		return
	}

	fmt.Fprint(os.Stderr, "Secrets file password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		logger.Warn("Failed to read password: %v", err)
		return
	}

	secrets, err := config.DecryptSecretsFile(projectDir, string(password))
	if err != nil {
		logger.Warn("Failed to decrypt secrets file: %v", err)
		return
	}
	config.SetDecryptedSecrets(secrets)
	logger.Info("Loaded %d secrets from encrypted file", len(secrets))
}

// promptForMissingKeys asks for the API keys the configured models need when
// they are absent from both the environment and the secrets file. Non-TTY
// runs skip the prompt and fail later with a clear provider error.
func promptForMissingKeys(cfg config.Config, logger *logx.Logger) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	seen := make(map[string]bool)
	for _, model := range []string{cfg.Agents.ChatModel, cfg.Agents.SearchModel} {
		provider, err := config.GetModelProvider(model)
		if err != nil || provider == config.ProviderOllama || seen[provider] {
			continue
		}
		seen[provider] = true

		if key, err := config.GetAPIKey(provider); err == nil && key != "" {
			continue
		}

		fmt.Fprintf(os.Stderr, "API key for %s (model %s): ", provider, model)
		key, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil || len(key) == 0 {
			logger.Warn("No API key provided for %s", provider)
			continue
		}
		if err := setProviderKey(provider, string(key)); err != nil {
			logger.Warn("Failed to store API key for %s: %v", provider, err)
		}
	}
}

// setProviderKey stores an interactively entered key in the in-memory
// secrets map under the provider's environment variable name.
func setProviderKey(provider, key string) error {
	var name string
	switch provider {
	case config.ProviderAnthropic:
		name = config.EnvAnthropicAPIKey
	case config.ProviderOpenAI:
		name = config.EnvOpenAIAPIKey
	case config.ProviderGoogle:
		name = config.EnvGoogleAPIKey
	case config.ProviderDashScope:
		name = config.EnvDashScopeAPIKey
	default:
		return fmt.Errorf("unknown provider: %s", provider)
	}
	return config.SetSecret(name, key)
}
