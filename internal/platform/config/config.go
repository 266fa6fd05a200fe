package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	MaxDonation     uint64
	AdminSigningKey string
	AdminPrincipal  string
	Redis           RedisConfig
	PostgresDSN     string
	Kafka           KafkaConfig
	Oracle          OracleConfig
	// SealingKeyHex is the 32-byte backend sealing key, hex-encoded. Empty
	// means an ephemeral key: fine for dev, useless after a restart.
	SealingKeyHex string
}

// RedisConfig holds connection settings for the optional Redis-backed stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the optional event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OracleConfig holds the oracle verification key set and signature threshold.
type OracleConfig struct {
	// PublicKeys maps key id to hex-encoded ed25519 public key.
	PublicKeys map[string]string
	// Required is the number of distinct valid signatures a callback needs.
	Required int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VEILFUND_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	maxDonation := uint64(10)
	if v := os.Getenv("VEILFUND_MAX_DONATION"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			maxDonation = n
		}
	}

	adminKey := os.Getenv("VEILFUND_ADMIN_SIGNING_KEY")
	if adminKey == "" {
		// Use a default for development - should be overridden in production
		adminKey = "dev-secret-key-change-in-production"
	}
	adminPrincipal := os.Getenv("VEILFUND_ADMIN_PRINCIPAL")
	if adminPrincipal == "" {
		adminPrincipal = "owner"
	}

	oracleKeys := map[string]string{}
	// VEILFUND_ORACLE_KEYS format: "kid1=hexkey1,kid2=hexkey2"
	if v := os.Getenv("VEILFUND_ORACLE_KEYS"); v != "" {
		for _, pair := range strings.Split(v, ",") {
			kid, key, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if ok && kid != "" && key != "" {
				oracleKeys[kid] = key
			}
		}
	}
	required := 1
	if v := os.Getenv("VEILFUND_ORACLE_REQUIRED_SIGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			required = n
		}
	}

	var brokers []string
	if v := os.Getenv("VEILFUND_KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("VEILFUND_KAFKA_TOPIC")
	if topic == "" {
		topic = "veilfund.events"
	}

	return Server{
		Addr:            addr,
		MaxDonation:     maxDonation,
		AdminSigningKey: adminKey,
		AdminPrincipal:  adminPrincipal,
		Redis: RedisConfig{
			URL:          os.Getenv("VEILFUND_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		PostgresDSN:   os.Getenv("VEILFUND_POSTGRES_DSN"),
		SealingKeyHex: os.Getenv("VEILFUND_SEALING_KEY"),
		Kafka:         KafkaConfig{Brokers: brokers, Topic: topic},
		Oracle:        OracleConfig{PublicKeys: oracleKeys, Required: required},
	}
}
