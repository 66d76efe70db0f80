package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"bridge-backend/internal/models"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	CORS       CORSConfig       `yaml:"cors"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	NATS       NATSConfig       `yaml:"nats"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	KMS        KMSConfig        `yaml:"kms"`
	Signer     SignerConfig     `yaml:"signer"`   // local key signer, used when KMS is disabled
	Transfer   TransferConfig   `yaml:"transfer"` // transfer defaults
}

// ServerConfig server configuration
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	MetricsAllowedIPs []string `yaml:"metricsAllowedIPs"` // IPs or CIDRs; empty means localhost only
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"` // seconds
}

// LogConfig logrus configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// AuthConfig session token configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"` // seconds
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// BlockchainConfig blockchain configuration
type BlockchainConfig struct {
	Networks map[string]NetworkConfig `yaml:"networks"`
}

// NetworkConfig one chain of the bridge
type NetworkConfig struct {
	ChainID      string            `yaml:"chainId"`    // native chain id, e.g. "evmos_9001-2"
	Name         string            `yaml:"name"`
	EVMChainID   int64             `yaml:"evmChainId"` // EIP-155 chain id
	RPCEndpoints []string          `yaml:"rpcEndpoints"`
	Bech32Prefix string            `yaml:"bech32Prefix"`
	Features     []string          `yaml:"features"`
	Currencies   []models.Currency `yaml:"currencies"`
	KMSKeyAlias  string            `yaml:"kmsKeyAlias"`
	Enabled      bool              `yaml:"enabled"`
}

// KMSConfig KMS service configuration
type KMSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ServiceURL string `yaml:"serviceUrl"`
	AuthToken  string `yaml:"authToken"`
	Timeout    int    `yaml:"timeout"` // request timeout (seconds)
}

// SignerConfig local private key signer
type SignerConfig struct {
	PrivateKey string `yaml:"privateKey"` // hex, without 0x
}

// TransferConfig transfer defaults
type TransferConfig struct {
	ReceiptPollInterval int    `yaml:"receiptPollInterval"` // milliseconds
	DefaultGasLimit     uint64 `yaml:"defaultGasLimit"`
	DefaultMaxFeePerGas string `yaml:"defaultMaxFeePerGas"` // wei
}

const (
	defaultReceiptPollInterval = 2 * time.Second
	defaultGasLimit            = 100000
)

var AppConfig *Config

// LoadConfig Load configuration file
func LoadConfig(configPath string) (*Config, error) {
	// if configuration file path empty, use default path
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			logrus.Info("Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"path":     configPath,
		"networks": len(config.Blockchain.Networks),
		"kms":      config.KMS.Enabled,
		"nats":     config.NATS.URL != "",
	}).Info("Configuration loaded")

	AppConfig = config
	return config, nil
}

// Parse decodes YAML, applies environment overrides and validates the result
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideFromEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the fields every deployment needs
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret is required")
	}
	for name, network := range c.Blockchain.Networks {
		if !network.Enabled {
			continue
		}
		if network.ChainID == "" {
			return fmt.Errorf("network %s: chainId is required", name)
		}
		if network.Bech32Prefix == "" {
			return fmt.Errorf("network %s: bech32Prefix is required", name)
		}
		if network.EVMChainID <= 0 {
			return fmt.Errorf("network %s: evmChainId is required", name)
		}
		if len(network.RPCEndpoints) == 0 {
			return fmt.Errorf("network %s: at least one rpc endpoint is required", name)
		}
	}
	if c.Transfer.DefaultMaxFeePerGas != "" {
		if _, ok := new(big.Int).SetString(c.Transfer.DefaultMaxFeePerGas, 10); !ok {
			return fmt.Errorf("transfer.defaultMaxFeePerGas is not an integer: %s", c.Transfer.DefaultMaxFeePerGas)
		}
	}
	return nil
}

// ChainInfos converts enabled networks into registry entries
func (c *Config) ChainInfos() []*models.ChainInfo {
	chains := make([]*models.ChainInfo, 0, len(c.Blockchain.Networks))
	for name, network := range c.Blockchain.Networks {
		if !network.Enabled {
			continue
		}
		chainName := network.Name
		if chainName == "" {
			chainName = name
		}
		chains = append(chains, &models.ChainInfo{
			ChainID:      network.ChainID,
			ChainName:    chainName,
			EVMChainID:   network.EVMChainID,
			RPCEndpoints: network.RPCEndpoints,
			Bech32Config: models.NewBech32ConfigFromPrefix(network.Bech32Prefix),
			Features:     network.Features,
			Currencies:   network.Currencies,
		})
	}
	return chains
}

// NetworkByChainID finds the network entry for a native chain id
func (c *Config) NetworkByChainID(chainID string) (NetworkConfig, bool) {
	for _, network := range c.Blockchain.Networks {
		if network.ChainID == chainID {
			return network, true
		}
	}
	return NetworkConfig{}, false
}

// ReceiptPollInterval interval between receipt queries
func (c *Config) ReceiptPollInterval() time.Duration {
	if c.Transfer.ReceiptPollInterval <= 0 {
		return defaultReceiptPollInterval
	}
	return time.Duration(c.Transfer.ReceiptPollInterval) * time.Millisecond
}

// DefaultGasLimit gas limit used when a request does not carry one
func (c *Config) DefaultGasLimit() uint64 {
	if c.Transfer.DefaultGasLimit == 0 {
		return defaultGasLimit
	}
	return c.Transfer.DefaultGasLimit
}

// DefaultMaxFeePerGas fee cap used when a request does not carry one, nil when unset
func (c *Config) DefaultMaxFeePerGas() *big.Int {
	if c.Transfer.DefaultMaxFeePerGas == "" {
		return nil
	}
	fee, ok := new(big.Int).SetString(c.Transfer.DefaultMaxFeePerGas, 10)
	if !ok {
		return nil
	}
	return fee
}

// overrideFromEnv Override configuration
func overrideFromEnv(config *Config) {
	// server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.CORS.AllowedOrigins = splitList(origins)
	}

	// NATS configuration
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	// KMS configuration
	if kmsEnabled := os.Getenv("KMS_ENABLED"); kmsEnabled != "" {
		config.KMS.Enabled = kmsEnabled == "true"
	}
	if kmsServiceURL := os.Getenv("KMS_SERVICE_URL"); kmsServiceURL != "" {
		config.KMS.ServiceURL = kmsServiceURL
	}
	if kmsAuthToken := os.Getenv("KMS_AUTH_TOKEN"); kmsAuthToken != "" {
		config.KMS.AuthToken = kmsAuthToken
	}

	if privateKey := os.Getenv("SIGNER_PRIVATE_KEY"); privateKey != "" {
		config.Signer.PrivateKey = privateKey
	}

	// network RPC endpoints, e.g. EVMOS_RPC_ENDPOINTS
	for networkName, networkConfig := range config.Blockchain.Networks {
		envRPC := fmt.Sprintf("%s_RPC_ENDPOINTS", strings.ToUpper(networkName))
		if rpcEndpoints := os.Getenv(envRPC); rpcEndpoints != "" {
			networkConfig.RPCEndpoints = splitList(rpcEndpoints)
		}
		envKMSKey := fmt.Sprintf("%s_KMS_KEY_ALIAS", strings.ToUpper(networkName))
		if kmsKeyAlias := os.Getenv(envKMSKey); kmsKeyAlias != "" {
			networkConfig.KMSKeyAlias = kmsKeyAlias
		}
		config.Blockchain.Networks[networkName] = networkConfig
	}
}

// splitList comma separated values, blanks dropped
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
