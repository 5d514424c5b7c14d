package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrReverted 交易已上链但执行失败，资金未转出
	ErrReverted = errors.New("transfer transaction reverted")
	// ErrInvalidDeposit 押金交易不存在、未确认或与活动押金不符
	ErrInvalidDeposit = errors.New("invalid deposit transaction")
)

// Backend 转账所需的链上能力，*ethclient.Client 满足该接口
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// TransfererOptions 转账参数
type TransfererOptions struct {
	ChainID        *big.Int
	GasLimit       uint64
	WeiPerUnit     *big.Int
	ReceiptTimeout time.Duration
}

// Transferer 用托管私钥发送原生币转账，实现 campaign.Transferer
type Transferer struct {
	mu      sync.Mutex // 串行化 nonce 分配
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
	opts    TransfererOptions
}

// NewTransferer 创建链上转账器
func NewTransferer(backend Backend, key *ecdsa.PrivateKey, opts TransfererOptions) *Transferer {
	if opts.GasLimit == 0 {
		opts.GasLimit = 21000
	}
	if opts.WeiPerUnit == nil || opts.WeiPerUnit.Sign() <= 0 {
		opts.WeiPerUnit = big.NewInt(1)
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = 2 * time.Minute
	}
	return &Transferer{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.LatestSignerForChainID(opts.ChainID),
		opts:    opts,
	}
}

// Name 发放后端名称
func (t *Transferer) Name() string {
	return "chain"
}

// Custody 托管账户地址，押金需转入该地址
func (t *Transferer) Custody() common.Address {
	return t.from
}

// VerifyDeposit 确认 txHash 是 from 发往托管账户、至少 amount 个单位且已成功执行的转账
func (t *Transferer) VerifyDeposit(ctx context.Context, txHash common.Hash, from common.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount %d", ErrInvalidDeposit, amount)
	}

	tx, pending, err := t.backend.TransactionByHash(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("%w: tx %s not found", ErrInvalidDeposit, txHash.Hex())
		}
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if pending {
		return fmt.Errorf("%w: tx %s is pending", ErrInvalidDeposit, txHash.Hex())
	}
	if tx.To() == nil || *tx.To() != t.from {
		return fmt.Errorf("%w: tx %s is not sent to custody", ErrInvalidDeposit, txHash.Hex())
	}
	sender, err := types.Sender(t.signer, tx)
	if err != nil || sender != from {
		return fmt.Errorf("%w: tx %s is not sent by %s", ErrInvalidDeposit, txHash.Hex(), from.Hex())
	}
	want := new(big.Int).Mul(big.NewInt(amount), t.opts.WeiPerUnit)
	if tx.Value().Cmp(want) < 0 {
		return fmt.Errorf("%w: tx %s value %s below %s", ErrInvalidDeposit, txHash.Hex(), tx.Value(), want)
	}

	receipt, err := t.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("%w: tx %s has no receipt", ErrInvalidDeposit, txHash.Hex())
		}
		return fmt.Errorf("failed to get receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: tx %s reverted", ErrInvalidDeposit, txHash.Hex())
	}
	return nil
}

// Transfer 把 amount 个奖池单位转给 to。
// 广播失败或交易回滚返回错误；广播成功但在超时内未确认视为已发送，不能再回滚。
func (t *Transferer) Transfer(ctx context.Context, campaign, to common.Address, amount int64) error {
	signed, err := t.send(ctx, to, amount)
	if err != nil {
		return err
	}
	logger.Info("Disbursement tx %s sent for campaign %s: %d units to %s", signed.Hash().Hex(), campaign.Hex(), amount, to.Hex())

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.ReceiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, t.backend, signed)
	if err != nil {
		logger.Warn("Disbursement tx %s for campaign %s not confirmed yet: %v", signed.Hash().Hex(), campaign.Hex(), err)
		return nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: tx %s", ErrReverted, signed.Hash().Hex())
	}
	logger.Info("Disbursement tx %s mined in block %s", signed.Hash().Hex(), receipt.BlockNumber)
	return nil
}

// send 签名并广播交易
func (t *Transferer) send(ctx context.Context, to common.Address, amount int64) (*types.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid transfer amount %d", amount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	value := new(big.Int).Mul(big.NewInt(amount), t.opts.WeiPerUnit)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      t.opts.GasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, t.signer, t.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed, nil
}
