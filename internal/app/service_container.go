package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/events"
	"bridge-backend/internal/handlers"
	"bridge-backend/internal/middleware"
	"bridge-backend/internal/router"
	"bridge-backend/internal/services"
	"bridge-backend/internal/utils"
)

const balanceFetchTimeout = 15 * time.Second

// ServiceContainer owns every long-lived client and service of the server
type ServiceContainer struct {
	Config *config.Config
	Logger *logrus.Logger

	// Chains
	Registry  *utils.ChainRegistry
	TxClients map[string]*clients.ERC20TxClient // chainID -> client
	Balances  map[string]*services.BalanceStore // chainID -> store

	// Signing
	KMSClient   *clients.KMSClient   // nil unless kms.enabled
	LocalSigner *clients.LocalSigner // nil unless signer.privateKey is set

	// Events
	NATSClient           *clients.NATSClient // nil when NATS is not configured
	WebSocketPushService *services.WebSocketPushService

	// Core Services
	TransferService *services.TransferService

	ethClients []*ethclient.Client
}

// NewServiceContainer dials every enabled chain and wires the services
func NewServiceContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*ServiceContainer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.Info("Initializing service container")

	c := &ServiceContainer{
		Config:    cfg,
		Logger:    logger,
		Registry:  utils.NewChainRegistry(cfg.ChainInfos()),
		TxClients: make(map[string]*clients.ERC20TxClient),
		Balances:  make(map[string]*services.BalanceStore),
	}

	if err := c.initChains(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize chains: %w", err)
	}
	if err := c.initSigners(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize signers: %w", err)
	}

	// event services are optional
	var publisher services.TransferEventPublisher
	if cfg.NATS.URL != "" {
		natsClient, err := clients.NewNATSClient(cfg.NATS, logger)
		if err != nil {
			logger.WithError(err).Warn("NATS unavailable, transfer events will not be published")
		} else {
			c.NATSClient = natsClient
			publisher = events.NewTransferEventPublisher(natsClient, cfg.NATS.SubjectPrefix)
		}
	}
	c.WebSocketPushService = services.NewWebSocketPushService(logger)

	c.TransferService = services.NewTransferService(services.TransferServiceDeps{
		Chains:    c.Registry,
		Providers: c.signProvider,
		TxClients: c.txClient,
		Balances:  c.Balances,
		Publisher: publisher,
		Pusher:    c.WebSocketPushService,
		Logger:    logger,
	})

	logger.WithField("chains", len(c.TxClients)).Info("Service container initialized")
	return c, nil
}

func (c *ServiceContainer) initChains(ctx context.Context) error {
	pollInterval := c.Config.ReceiptPollInterval()

	for _, chain := range c.Registry.GetAllChains() {
		endpoint, err := c.Registry.GetRPCEndpoint(chain.ChainID)
		if err != nil {
			return err
		}

		ethClient, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			return fmt.Errorf("failed to dial %s: %w", chain.ChainID, err)
		}
		c.ethClients = append(c.ethClients, ethClient)

		txClient := clients.NewERC20TxClient(chain.EVMChainID, ethClient, pollInterval)
		c.TxClients[chain.ChainID] = txClient
		c.Balances[chain.ChainID] = services.NewBalanceStore(
			chain.ChainID,
			services.NewEVMBalanceFetcher(txClient, chain.Bech32Config.Bech32PrefixAccAddr),
			balanceFetchTimeout,
			c.Logger,
		)

		c.Logger.WithFields(logrus.Fields{
			"chain_id":     chain.ChainID,
			"evm_chain_id": chain.EVMChainID,
			"rpc":          endpoint,
			"features":     chain.Features,
		}).Info("Chain client ready")
	}
	return nil
}

func (c *ServiceContainer) initSigners(ctx context.Context) error {
	if c.Config.KMS.Enabled {
		keyAliases := make(map[string]string)
		for _, network := range c.Config.Blockchain.Networks {
			if network.Enabled && network.KMSKeyAlias != "" {
				keyAliases[network.ChainID] = network.KMSKeyAlias
			}
		}
		c.KMSClient = clients.NewKMSClient(c.Config.KMS, keyAliases)

		if err := c.KMSClient.HealthCheck(ctx); err != nil {
			c.Logger.WithError(err).Warn("KMS health check failed, signing will fail until it recovers")
		}
	}

	if c.Config.Signer.PrivateKey != "" {
		signer, err := clients.NewLocalSigner(c.Config.Signer.PrivateKey)
		if err != nil {
			return err
		}
		c.LocalSigner = signer
		c.Logger.WithField("address", signer.Address().Hex()).Info("Local signer loaded")
	}
	return nil
}

// signProvider KMS first, then the local key
func (c *ServiceContainer) signProvider(ctx context.Context) (services.SignProvider, error) {
	switch {
	case c.KMSClient != nil:
		return c.KMSClient, nil
	case c.LocalSigner != nil:
		return c.LocalSigner, nil
	default:
		return nil, fmt.Errorf("no signing provider configured")
	}
}

func (c *ServiceContainer) txClient(chainID string) (services.TxClient, error) {
	client, ok := c.TxClients[chainID]
	if !ok {
		return nil, fmt.Errorf("no tx client for chain %s", chainID)
	}
	return client, nil
}

// HealthChecks dependencies probed by /ready
func (c *ServiceContainer) HealthChecks() map[string]handlers.HealthChecker {
	checks := make(map[string]handlers.HealthChecker)
	if c.KMSClient != nil {
		checks["kms"] = c.KMSClient
	}
	if c.NATSClient != nil {
		checks["nats"] = c.NATSClient
	}
	return checks
}

// TransferDefaults fee defaults from config
func (c *ServiceContainer) TransferDefaults() handlers.TransferDefaults {
	return handlers.TransferDefaults{
		MaxFeePerGas: c.Config.DefaultMaxFeePerGas(),
		GasLimit:     c.Config.DefaultGasLimit(),
	}
}

// RouterHandlers builds the HTTP handlers on top of the services
func (c *ServiceContainer) RouterHandlers() router.Handlers {
	return router.Handlers{
		Chains:     handlers.NewChainConfigHandler(c.Registry, c.TransferService, c.Logger),
		Transfers:  handlers.NewTransferHandler(c.TransferService, c.TransferDefaults(), c.Logger),
		WebSocket:  handlers.NewWebSocketHandler(c.WebSocketPushService, c.Logger),
		Auth:       middleware.NewAuthMiddleware(c.Config.Auth, c.Logger),
		Readiness:  c.HealthChecks(),
		MetricsIPs: middleware.NewLocalhostOnly(c.Logger, c.Config.Server.MetricsAllowedIPs),
	}
}

// Close releases network clients
func (c *ServiceContainer) Close() {
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	for _, client := range c.ethClients {
		client.Close()
	}
}
