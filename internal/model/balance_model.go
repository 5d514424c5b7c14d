package model

import (
	"time"
)

// BalanceModel 本地账本余额，活动托管账户与收款人共用
type BalanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"uniqueIndex;size:42;not null"`
	Amount  int64  `json:"amount" gorm:"not null;default:0"`
}

// TableName 自定义表名
func (BalanceModel) TableName() string {
	return "balance"
}
