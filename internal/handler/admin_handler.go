package handler

import (
	"net/http"

	"github.com/blues/crowdcampaign/internal/access"
	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/blues/crowdcampaign/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// AdminHandler 系统级暂停开关和账本充值，仅管理员地址可以操作
type AdminHandler struct {
	pause    *access.PauseSwitch
	balances *logic.BalanceLogic
	admin    common.Address
}

// NewAdminHandler admin 为空字符串或无效地址时所有管理请求都被拒绝
func NewAdminHandler(pause *access.PauseSwitch, balances *logic.BalanceLogic, admin string) *AdminHandler {
	h := &AdminHandler{pause: pause, balances: balances}
	if common.IsHexAddress(admin) {
		h.admin = common.HexToAddress(admin)
	}
	return h
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	if h.admin == (common.Address{}) {
		ErrorResponse(c, http.StatusForbidden, "管理接口未启用")
		return false
	}
	caller, ok := bindCaller(c)
	if !ok {
		return false
	}
	if caller != h.admin {
		ErrorResponse(c, http.StatusForbidden, "只有管理员可以执行该操作")
		return false
	}
	return true
}

// Pause 暂停所有活动的状态变更
func (h *AdminHandler) Pause(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	was := h.pause.Pause()
	if !was {
		logger.Warn("System paused by %s", c.GetHeader(CallerHeader))
	}
	SuccessResponse(c, http.StatusOK, "系统已暂停", gin.H{"paused": true})
}

// Unpause 恢复状态变更
func (h *AdminHandler) Unpause(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	was := h.pause.Unpause()
	if was {
		logger.Warn("System unpaused by %s", c.GetHeader(CallerHeader))
	}
	SuccessResponse(c, http.StatusOK, "系统已恢复", gin.H{"paused": false})
}

// Status 查询暂停状态
func (h *AdminHandler) Status(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "获取系统状态成功", gin.H{"paused": h.pause.Paused()})
}

// Credit 为地址充值本地账本余额
func (h *AdminHandler) Credit(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	if h.balances == nil {
		ErrorResponse(c, http.StatusNotFound, "本地账本未启用")
		return
	}
	address, err := parseAddress(c.Param("address"), errInvalidAddress)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req CreditBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.balances.TopUp(c.Request.Context(), address, req.Amount)
	if err != nil {
		FailResponse(c, err)
		return
	}
	logger.Info("Balance of %s credited %d by admin", address.Hex(), req.Amount)
	SuccessResponse(c, http.StatusOK, "充值成功", BalanceResponse{
		Address: address.Hex(),
		Balance: balance,
	})
}
