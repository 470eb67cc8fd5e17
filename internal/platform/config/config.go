// Package config loads process configuration from defaults, SEAL_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SEAL"

// Development defaults: the first Hardhat account owns everything and the
// contract addresses are the first deployments from that account.
const (
	defaultOwner            = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	defaultRegistry         = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	defaultProvider         = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	defaultSeal             = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
	defaultCertify          = "0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9"
	defaultCourseTemplate   = "0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9"
	defaultActivityTemplate = "0x5FC8d32690cc91D4c39d9d3abcBD16989F875707"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Credits  CreditsConfig  `mapstructure:"credits"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PostgresConfig selects the Postgres stores when DSN is set; memory stores otherwise.
type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DedupeTTL    time.Duration `mapstructure:"dedupe_ttl"`
}

// KafkaConfig enables the attestation ingest consumer and the outbox relay
// when Brokers is non-empty.
type KafkaConfig struct {
	Brokers          []string      `mapstructure:"brokers"`
	AttestationTopic string        `mapstructure:"attestation_topic"`
	EventsTopic      string        `mapstructure:"events_topic"`
	ConsumerGroup    string        `mapstructure:"consumer_group"`
	RelayInterval    time.Duration `mapstructure:"relay_interval"`
	RelayBatch       int           `mapstructure:"relay_batch"`
}

type AuthConfig struct {
	JWTSigningKey  string        `mapstructure:"jwt_signing_key"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	ChallengeTTL   time.Duration `mapstructure:"challenge_ttl"`
	AdminTokenHash string        `mapstructure:"admin_token_hash"`
}

// ChainConfig holds the addresses the services act as or trust.
type ChainConfig struct {
	Owner            string `mapstructure:"owner"`
	Registry         string `mapstructure:"registry"`
	Provider         string `mapstructure:"provider"`
	Seal             string `mapstructure:"seal"`
	Certify          string `mapstructure:"certify"`
	CourseTemplate   string `mapstructure:"course_template"`
	ActivityTemplate string `mapstructure:"activity_template"`
}

type CreditsConfig struct {
	CourseCreationCost uint64 `mapstructure:"course_creation_cost"`
	MintCost           uint64 `mapstructure:"mint_cost"`
}

// Addresses is ChainConfig with every entry parsed.
type Addresses struct {
	Owner            common.Address
	Registry         common.Address
	Provider         common.Address
	Seal             common.Address
	Certify          common.Address
	CourseTemplate   common.Address
	ActivityTemplate common.Address
}

// Load builds the configuration for the given command line arguments.
func Load(args []string) (*Config, error) {
	v := viper.New()
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SortFlags = false

	fs.String("server.addr", ":8080", "HTTP listen address")
	fs.Duration("server.read_timeout", 10*time.Second, "HTTP read timeout")
	fs.Duration("server.write_timeout", 15*time.Second, "HTTP write timeout")
	fs.Duration("server.shutdown_timeout", 20*time.Second, "graceful shutdown timeout")
	fs.Duration("server.request_timeout", 30*time.Second, "per-request handler timeout")
	fs.StringSlice("server.cors_origins", []string{"*"}, "allowed CORS origins")
	fs.StringP("log.level", "l", "info", "log level (debug, info, warn, error)")
	fs.String("log.format", "json", "log format (json, text)")
	fs.String("postgres.dsn", "", "postgres DSN; memory stores are used when empty")
	fs.Int("postgres.max_open_conns", 20, "postgres max open connections")
	fs.Int("postgres.max_idle_conns", 5, "postgres max idle connections")
	fs.String("redis.url", "", "redis URL for attestation de-duplication")
	fs.Int("redis.pool_size", 10, "redis pool size")
	fs.Int("redis.min_idle_conns", 2, "redis min idle connections")
	fs.Duration("redis.dial_timeout", 5*time.Second, "redis dial timeout")
	fs.Duration("redis.read_timeout", 3*time.Second, "redis read timeout")
	fs.Duration("redis.write_timeout", 3*time.Second, "redis write timeout")
	fs.Duration("redis.dedupe_ttl", 24*time.Hour, "how long delivered attestations are remembered")
	fs.StringSlice("kafka.brokers", nil, "kafka seed brokers, comma-separated")
	fs.String("kafka.attestation_topic", "seal.attestations", "topic carrying external attestations")
	fs.String("kafka.events_topic", "seal.events", "topic the outbox relay publishes to")
	fs.String("kafka.consumer_group", "seal-ingest", "consumer group of the attestation ingest")
	fs.Duration("kafka.relay_interval", time.Second, "outbox relay poll interval")
	fs.Int("kafka.relay_batch", 100, "outbox relay batch size")
	fs.String("auth.jwt_signing_key", "", "HS256 key for caller tokens (required)")
	fs.String("auth.issuer", "seal", "token issuer")
	fs.Duration("auth.token_ttl", time.Hour, "caller token lifetime")
	fs.Duration("auth.challenge_ttl", 5*time.Minute, "how long a sign-in challenge may be answered")
	fs.String("auth.audience", "seal-api", "caller token audience")
	fs.String("auth.admin_token_hash", "", "bcrypt hash of the admin token")
	fs.String("chain.owner", defaultOwner, "owner of the registry and strategy hosts")
	fs.String("chain.registry", defaultRegistry, "registry address")
	fs.String("chain.provider", defaultProvider, "trusted attestation provider address")
	fs.String("chain.seal", defaultSeal, "seal strategy host address")
	fs.String("chain.certify", defaultCertify, "certify strategy host address")
	fs.String("chain.course_template", defaultCourseTemplate, "initial cloneable course template")
	fs.String("chain.activity_template", defaultActivityTemplate, "activity strategy template")
	fs.Uint64("credits.course_creation_cost", 1, "profile credits consumed per course")
	fs.Uint64("credits.mint_cost", 1, "profile credits consumed per certificate")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and address formats.
func (c *Config) Validate() error {
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth.jwt_signing_key is required (flag --auth.jwt_signing_key or %s_AUTH_JWT_SIGNING_KEY)", envPrefix)
	}
	if c.Kafka.RelayBatch <= 0 {
		return fmt.Errorf("kafka.relay_batch must be positive")
	}
	_, err := c.Chain.Parse()
	return err
}

// Parse converts every configured address, rejecting malformed and zero values.
func (c ChainConfig) Parse() (Addresses, error) {
	var out Addresses
	fields := []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"chain.owner", c.Owner, &out.Owner},
		{"chain.registry", c.Registry, &out.Registry},
		{"chain.provider", c.Provider, &out.Provider},
		{"chain.seal", c.Seal, &out.Seal},
		{"chain.certify", c.Certify, &out.Certify},
		{"chain.course_template", c.CourseTemplate, &out.CourseTemplate},
		{"chain.activity_template", c.ActivityTemplate, &out.ActivityTemplate},
	}
	for _, f := range fields {
		if !common.IsHexAddress(f.raw) {
			return Addresses{}, fmt.Errorf("%s: invalid address %q", f.name, f.raw)
		}
		addr := common.HexToAddress(f.raw)
		if addr == (common.Address{}) {
			return Addresses{}, fmt.Errorf("%s: zero address", f.name)
		}
		*f.dst = addr
	}
	return out, nil
}
