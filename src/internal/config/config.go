package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=bank_account_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultChannelID = "BankApp"
const defaultChannelKey = "BankChannelKey001"
const defaultBankCode = "GRYB"
const defaultMaxCommitAttempts = 5

type Config struct {
	DatabaseDSN       string
	MigrationsDir     string
	HTTPAddr          string
	ChannelID         string
	ChannelKey        string
	ChannelKeyHash    string
	BankCode          string
	MaxCommitAttempts int
}

func Load() (Config, error) {
	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}

	channelID := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if channelID == "" {
		channelID = defaultChannelID
	}

	channelKey := strings.TrimSpace(os.Getenv("CHANNEL_KEY"))
	if channelKey == "" {
		channelKey = defaultChannelKey
	}

	// When set, the middleware verifies the presented key against this
	// bcrypt hash instead of comparing plaintext.
	channelKeyHash := strings.TrimSpace(os.Getenv("CHANNEL_KEY_HASH"))

	bankCode := strings.ToUpper(strings.TrimSpace(os.Getenv("BANK_CODE")))
	if bankCode == "" {
		bankCode = defaultBankCode
	}

	maxCommitAttempts := defaultMaxCommitAttempts
	if raw := strings.TrimSpace(os.Getenv("MAX_COMMIT_ATTEMPTS")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return Config{}, fmt.Errorf("MAX_COMMIT_ATTEMPTS must be a positive integer, got %q", raw)
		}
		maxCommitAttempts = parsed
	}

	return Config{
		DatabaseDSN:       normalizeConnectionString(conn),
		MigrationsDir:     filepath.Join("src", "migrations"),
		HTTPAddr:          httpAddr,
		ChannelID:         channelID,
		ChannelKey:        channelKey,
		ChannelKeyHash:    channelKeyHash,
		BankCode:          bankCode,
		MaxCommitAttempts: maxCommitAttempts,
	}, nil
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
