package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	infisical "github.com/infisical/go-sdk"
)

type Config struct {
	Port           string
	RPCs           []string
	TokenAddress   string
	UpdateInterval time.Duration
	UploadToken    string
	FrontendOrigin string

	BlobBackend   string // file | redis | postgres
	SnapshotDir   string
	RedisURL      string
	RedisPassword string
	DatabaseURL   string

	BobStatsKey      string
	BobVaultTemplate string
	BobVaultChains   []string

	RetryAttempts int
	RetryDelay    time.Duration
	RPCTimeout    time.Duration
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		RPCs:           splitList(envOr("RPCS", "https://polygon-rpc.com,https://mainnet.optimism.io")),
		TokenAddress:   envOr("BOB_TOKEN", "0xB0B195aEFA3650A6908f15CdaC7D92F8a5791B0B"),
		UpdateInterval: time.Duration(envInt("UPDATE_INTERVAL", 3600)) * time.Second,
		UploadToken:    os.Getenv("UPLOAD_TOKEN"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),

		BlobBackend:   envOr("BLOB_BACKEND", "file"),
		SnapshotDir:   envOr("SNAPSHOT_DIR", "."),
		RedisURL:      envOr("REDIS_URL", "redis://localhost:6379/0"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		BobStatsKey:      envOr("BOBSTAT_SNAPSHOT_FILE", "bobstat-data"),
		BobVaultTemplate: envOr("BOBVAULT_SNAPSHOT_TEMPLATE", "bobvault-{chain}-coingecko-data"),
		BobVaultChains:   splitList(envOr("BOBVAULT_CHAINS", "polygon")),

		RetryAttempts: envInt("WEB3_RETRY_ATTEMPTS", 2),
		RetryDelay:    time.Duration(envInt("WEB3_RETRY_DELAY", 5)) * time.Second,
		RPCTimeout:    time.Duration(envInt("RPC_TIMEOUT", 15)) * time.Second,
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

// LogEffective reports the effective configuration at startup with secrets
// masked.
func (c Config) LogEffective(logger *slog.Logger) {
	logger.Info("configuration",
		"PORT", c.Port,
		"RPCS", strings.Join(c.RPCs, ","),
		"BOB_TOKEN", c.TokenAddress,
		"UPDATE_INTERVAL", c.UpdateInterval.String(),
		"BLOB_BACKEND", c.BlobBackend,
		"SNAPSHOT_DIR", c.SnapshotDir,
		"BOBVAULT_CHAINS", strings.Join(c.BobVaultChains, ","),
		"WEB3_RETRY_ATTEMPTS", c.RetryAttempts,
		"WEB3_RETRY_DELAY", c.RetryDelay.String(),
	)
	if c.UploadToken != "" {
		logger.Info("UPLOAD_TOKEN is set")
	} else {
		logger.Warn("UPLOAD_TOKEN is not set, uploads will be rejected")
	}
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	secrets := map[string]*string{
		"UPLOAD_TOKEN":   &cfg.UploadToken,
		"REDIS_PASSWORD": &cfg.RedisPassword,
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
