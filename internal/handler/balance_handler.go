package handler

import (
	"net/http"

	"github.com/blues/crowdcampaign/internal/logic"
	"github.com/gin-gonic/gin"
)

type BalanceHandler struct {
	balanceLogic *logic.BalanceLogic
}

// NewBalanceHandler balanceLogic 为 nil 表示奖池经链上发放，本地账本不可用
func NewBalanceHandler(balanceLogic *logic.BalanceLogic) *BalanceHandler {
	return &BalanceHandler{balanceLogic: balanceLogic}
}

// GetBalance 查询本地账本余额
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	if h.balanceLogic == nil {
		ErrorResponse(c, http.StatusNotFound, "本地账本未启用")
		return
	}
	address, err := parseAddress(c.Param("address"), errInvalidAddress)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.balanceLogic.GetBalance(address)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取余额成功", BalanceResponse{
		Address: address.Hex(),
		Balance: balance,
	})
}
