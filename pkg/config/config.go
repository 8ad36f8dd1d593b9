// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Deployment catalog (locales, flows, properties, meta) and message bundles
	CatalogFile      string
	MessagesDir      string
	MessageLanguages []string

	// SAML metadata files, one resolver per file, reloaded periodically
	MetadataFiles  []string
	MetadataReload time.Duration

	// Overrides for catalog values ("" keeps the catalog value)
	ActiveFlowIDs   string
	ResponseHeaders map[string]string

	// Optional bearer guard for the API
	Issuer   string
	Audience string
	JWKSURL  string
	JWTSkew  time.Duration

	// Redis & Postgres
	RedisURL      string
	ReloadChannel string
	DatabaseURL   string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:              env("IDP_ENV", "dev"),
		HTTPAddr:         env("IDP_HTTP_ADDR", ":8080"),
		CatalogFile:      env("IDP_CATALOG_FILE", "catalog.yaml"),
		MessagesDir:      env("IDP_MESSAGES_DIR", "messages"),
		MessageLanguages: envList("IDP_MESSAGE_LANGS", ",", []string{"fi", "en", "sv"}),
		MetadataFiles:    envList("IDP_METADATA_FILES", ",", nil),
		MetadataReload:   envDur("IDP_METADATA_RELOAD_SEC", 300) * time.Second,
		ActiveFlowIDs:    env("IDP_ACTIVE_FLOW_IDS", ""),
		ResponseHeaders:  parseHeaders(env("IDP_RESPONSE_HEADERS", "")),
		Issuer:           env("IDP_ISSUER", ""),
		Audience:         env("IDP_AUDIENCE", ""),
		JWKSURL:          env("IDP_JWKS_URL", ""),
		JWTSkew:          envDur("IDP_JWT_SKEW_SEC", 60) * time.Second,
		RedisURL:         env("REDIS_URL", ""),
		ReloadChannel:    env("IDP_RELOAD_CHANNEL", "idp:metadata:reload"),
		DatabaseURL:      env("DATABASE_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set, flows are read from the catalog file")
	}
	return cfg
}

// parseHeaders reads "Name:Value|Name2:Value2".
func parseHeaders(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, "|") {
		name, value, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envList(k, sep string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
