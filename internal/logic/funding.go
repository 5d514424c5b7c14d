package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/chain"
	"github.com/blues/crowdcampaign/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gorm.io/gorm"
)

var (
	// ErrUnfundedDeposit 创建者没有为押金出资
	ErrUnfundedDeposit = &campaign.Error{Kind: campaign.KindValidation, Message: "创建押金未到账"}
	// ErrInvalidFundingTx 押金交易哈希格式错误
	ErrInvalidFundingTx = &campaign.Error{Kind: campaign.KindValidation, Message: "无效的押金交易哈希"}
	// ErrFundingTxUsed 押金交易已为其他活动出资
	ErrFundingTxUsed = &campaign.Error{Kind: campaign.KindValidation, Message: "押金交易已被使用"}
)

// Funding 创建押金的来源，证明押金确实进入托管后活动才会被接纳
type Funding interface {
	// Verify 在创建事务之外确认押金，可以访问外部系统
	Verify(ctx context.Context, creator common.Address, amount int64, proof string) error
	// Record 在创建事务内把押金记到活动名下，返回错误时放弃创建
	Record(tx *gorm.DB, creator, handle common.Address, amount int64, proof string) error
}

// DepositVerifier 校验链上押金交易，*chain.Transferer 满足该接口
type DepositVerifier interface {
	VerifyDeposit(ctx context.Context, txHash common.Hash, from common.Address, amount int64) error
}

// ChainFunding 链上押金：创建者先向托管账户转账，创建时提交交易哈希
type ChainFunding struct {
	verifier DepositVerifier
}

// NewChainFunding 创建链上押金校验
func NewChainFunding(verifier DepositVerifier) *ChainFunding {
	return &ChainFunding{verifier: verifier}
}

func parseFundingTx(proof string) (common.Hash, error) {
	raw, err := hexutil.Decode(proof)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, ErrInvalidFundingTx
	}
	return common.BytesToHash(raw), nil
}

// Verify 确认交易由创建者发往托管账户且金额足够
func (f *ChainFunding) Verify(ctx context.Context, creator common.Address, amount int64, proof string) error {
	hash, err := parseFundingTx(proof)
	if err != nil {
		return err
	}
	if err := f.verifier.VerifyDeposit(ctx, hash, creator, amount); err != nil {
		if errors.Is(err, chain.ErrInvalidDeposit) {
			return &campaign.Error{Kind: campaign.KindValidation, Message: "押金交易校验失败", Err: err}
		}
		return &campaign.Error{Kind: campaign.KindTransfer, Message: "押金交易查询失败", Err: err}
	}
	return nil
}

// Record 登记交易哈希，同一笔交易不能为两个活动出资
func (f *ChainFunding) Record(tx *gorm.DB, creator, handle common.Address, amount int64, proof string) error {
	hash, err := parseFundingTx(proof)
	if err != nil {
		return err
	}

	var count int64
	if err := tx.Model(&model.FundingModel{}).Where("tx_hash = ?", hash.Hex()).Count(&count).Error; err != nil {
		return fmt.Errorf("查询押金交易失败: %w", err)
	}
	if count > 0 {
		return ErrFundingTxUsed
	}
	if err := tx.Create(&model.FundingModel{
		TxHash:         hash.Hex(),
		CampaignHandle: handle.Hex(),
		CreatorAddress: creator.Hex(),
		Amount:         amount,
	}).Error; err != nil {
		return fmt.Errorf("登记押金交易失败: %w", err)
	}
	return nil
}
