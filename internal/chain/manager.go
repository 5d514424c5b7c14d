package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/blues/crowdcampaign/internal/config"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Manager 单链管理器，持有客户端与托管账户私钥
type Manager struct {
	mu      sync.RWMutex
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	custody common.Address
	config  config.ChainConfig
}

// NewManager 创建单链管理器
func NewManager(cfg config.ChainConfig) (*Manager, error) {
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		key:     key,
		custody: crypto.PubkeyToAddress(key.PublicKey),
		config:  cfg,
	}
	if err := manager.initClient(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return manager, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("no custody private key configured")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// initClient 初始化客户端并校验链ID
func (m *Manager) initClient(cfg config.ChainConfig) error {
	if cfg.RpcUrl == "" {
		return fmt.Errorf("no RPC URL configured")
	}
	logger.Info("Initializing chain client (id: %d, rpc: %s)", cfg.ChainId, cfg.RpcUrl)

	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", cfg.RpcUrl, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("client connection test failed: %w", err)
	}
	if cfg.ChainId != 0 && chainID.Cmp(big.NewInt(cfg.ChainId)) != 0 {
		client.Close()
		return fmt.Errorf("chain id mismatch: configured %d, node reports %s", cfg.ChainId, chainID)
	}

	m.client = client
	m.config.ChainId = chainID.Int64()
	logger.Info("Successfully initialized client, custody account %s", m.custody.Hex())
	return nil
}

// Transferer 基于当前客户端创建奖池转账器
func (m *Manager) Transferer() *Transferer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewTransferer(m.client, m.key, TransfererOptions{
		ChainID:        big.NewInt(m.config.ChainId),
		GasLimit:       m.config.GasLimit,
		WeiPerUnit:     big.NewInt(m.config.WeiPerUnit),
		ReceiptTimeout: time.Duration(m.config.ReceiptTimeout) * time.Second,
	})
}

// Custody 托管账户地址
func (m *Manager) Custody() common.Address {
	return m.custody
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_id":      m.config.ChainId,
		"custody":       m.custody.Hex(),
		"client_status": "connected",
	}
	if m.client == nil {
		health["client_status"] = "not_initialized"
		return health
	}
	if number, err := m.client.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
	} else {
		health["block_number"] = number
	}
	if balance, err := m.client.BalanceAt(ctx, m.custody, nil); err == nil {
		health["custody_balance_wei"] = balance.String()
	}
	return health
}

// Close 关闭管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
	}
	logger.Info("Chain manager closed")
	return nil
}
