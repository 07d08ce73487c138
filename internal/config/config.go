package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// EtherscanConfig holds the blockchain explorer connector configuration
type EtherscanConfig struct {
	APIURL            string  `mapstructure:"api_url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	StartBlock        uint64  `mapstructure:"start_block"`
	EndBlock          uint64  `mapstructure:"end_block"`
}

// CoinbaseConfig holds the exchange connector configuration
type CoinbaseConfig struct {
	APIURL    string `mapstructure:"api_url"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// EthereumConfig holds Ethereum node configuration
type EthereumConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// TrackerConfig holds configuration for the tracker CLI
type TrackerConfig struct {
	BaseConfig      `mapstructure:",squash"`
	Database        DatabaseConfig  `mapstructure:"database"`
	Etherscan       EtherscanConfig `mapstructure:"etherscan"`
	Coinbase        CoinbaseConfig  `mapstructure:"coinbase"`
	Ethereum        EthereumConfig  `mapstructure:"ethereum"`
	DEXRegistryPath string          `mapstructure:"dex_registry_path"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig      `mapstructure:",squash"`
	Server          ServerConfig    `mapstructure:"server"`
	Auth            AuthConfig      `mapstructure:"auth"`
	Database        DatabaseConfig  `mapstructure:"database"`
	Etherscan       EtherscanConfig `mapstructure:"etherscan"`
	Coinbase        CoinbaseConfig  `mapstructure:"coinbase"`
	Ethereum        EthereumConfig  `mapstructure:"ethereum"`
	DEXRegistryPath string          `mapstructure:"dex_registry_path"`
}

// LoadTrackerConfig loads configuration for the tracker CLI
func LoadTrackerConfig(configFile string, envPath string) (*TrackerConfig, error) {
	v := configureViper("tracker", configFile, envPath)

	setConnectorDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config TrackerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	setConnectorDefaults(v)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// setConnectorDefaults applies defaults shared by every binary
func setConnectorDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("etherscan.api_url", "https://api.etherscan.io/api")
	v.SetDefault("etherscan.requests_per_second", 5)
	v.SetDefault("etherscan.end_block", 99999999)
	v.SetDefault("coinbase.api_url", "https://api.coinbase.com/v2")
	v.SetDefault("ethereum.rpc_url", "https://cloudflare-eth.com")
	v.SetDefault("dex_registry_path", "config/dex_registry.json")
}

// readConfig reads the config file, falling back to environment variables
// when no file is present
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper creates a viper instance wired to the service's config
// file and environment
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	loadEnv(envPath, service)

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(service)
		v.SetConfigType("yaml")
		v.AddConfigPath("config/")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables. This is required for viper
	// to map env vars to config struct fields when no config file exists.
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Etherscan
		"etherscan.api_url",
		"etherscan.api_key",
		"etherscan.requests_per_second",
		"etherscan.start_block",
		"etherscan.end_block",
		// Coinbase
		"coinbase.api_url",
		"coinbase.api_key",
		"coinbase.api_secret",
		// Ethereum node
		"ethereum.rpc_url",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.api_keys",
		// Registry
		"dex_registry_path",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
