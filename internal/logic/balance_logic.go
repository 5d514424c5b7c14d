package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInsufficientCustody 托管账户余额不足
	ErrInsufficientCustody = errors.New("托管账户余额不足")
	// ErrInvalidTopUp 充值金额必须大于0
	ErrInvalidTopUp = &campaign.Error{Kind: campaign.KindValidation, Message: "充值金额必须大于0"}
)

// BalanceLogic 本地账本，作为未启用链上发放时的奖池转账实现
type BalanceLogic struct {
	db *gorm.DB
}

// NewBalanceLogic 创建账本业务逻辑
func NewBalanceLogic(db *gorm.DB) *BalanceLogic {
	return &BalanceLogic{db: db}
}

// Name 发放后端名称
func (b *BalanceLogic) Name() string {
	return "ledger"
}

// credit 在给定事务中增加余额，不存在则创建
func credit(tx *gorm.DB, address common.Address, amount int64) error {
	row := model.BalanceModel{Address: address.Hex(), Amount: amount}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"amount": gorm.Expr("balance.amount + ?", amount)}),
	}).Create(&row).Error
}

// debit 在给定事务中扣减余额，余额不足时不修改任何行
func debit(tx *gorm.DB, address common.Address, amount int64) (bool, error) {
	result := tx.Model(&model.BalanceModel{}).
		Where("address = ? AND amount >= ?", address.Hex(), amount).
		Update("amount", gorm.Expr("amount - ?", amount))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Verify 实现 Funding，账本押金在创建事务内扣减，这里无需外部确认
func (b *BalanceLogic) Verify(ctx context.Context, creator common.Address, amount int64, proof string) error {
	return nil
}

// Record 实现 Funding：从创建者余额扣出押金记入活动托管账户，余额不足时放弃创建
func (b *BalanceLogic) Record(tx *gorm.DB, creator, handle common.Address, amount int64, proof string) error {
	ok, err := debit(tx, creator, amount)
	if err != nil {
		return fmt.Errorf("扣减创建者余额失败: %w", err)
	}
	if !ok {
		return ErrUnfundedDeposit
	}
	if err := credit(tx, handle, amount); err != nil {
		return fmt.Errorf("记入托管余额失败: %w", err)
	}
	return nil
}

// TopUp 管理员为地址充值，账本中唯一的价值来源
func (b *BalanceLogic) TopUp(ctx context.Context, address common.Address, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidTopUp
	}
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return credit(tx, address, amount)
	})
	if err != nil {
		return 0, fmt.Errorf("充值失败: %w", err)
	}
	return b.GetBalance(address)
}

// Transfer 实现 campaign.Transferer：在一个事务里扣减托管账户并记入收款人
func (b *BalanceLogic) Transfer(ctx context.Context, from, to common.Address, amount int64) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := debit(tx, from, amount)
		if err != nil {
			return fmt.Errorf("扣减托管余额失败: %w", err)
		}
		if !ok {
			return ErrInsufficientCustody
		}
		if err := credit(tx, to, amount); err != nil {
			return fmt.Errorf("记入收款余额失败: %w", err)
		}
		return nil
	})
}

// GetBalance 查询余额，没有记录时为0
func (b *BalanceLogic) GetBalance(address common.Address) (int64, error) {
	var row model.BalanceModel
	err := b.db.Where("address = ?", address.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("获取余额失败: %w", err)
	}
	return row.Amount, nil
}
