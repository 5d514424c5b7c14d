package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

var (
	errInvalidHandle   = errors.New("无效的活动句柄")
	errInvalidAddress  = errors.New("无效的地址")
	errInvalidReceiver = errors.New("无效的收款地址")
)

type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
	eventLogic    *logic.EventLogic
}

func NewCampaignHandler(campaignLogic *logic.CampaignLogic, eventLogic *logic.EventLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
		eventLogic:    eventLogic,
	}
}

// bindCaller 解析调用者，失败时直接写回响应
func bindCaller(c *gin.Context) (common.Address, bool) {
	caller, err := callerAddress(c)
	if err != nil {
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return common.Address{}, false
	}
	return caller, true
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	details, err := h.campaignLogic.Create(c.Request.Context(), caller, campaign.CreateInput{
		Name:                    req.Name,
		Description:             req.Description,
		ExampleContentRefs:      req.ExampleContentRefs,
		MinimumContentThreshold: req.MinimumContentThreshold,
	}, req.Deposit, req.FundingTx)
	if err != nil {
		FailResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", toCampaignResponse(details))
}

// GetCampaigns 获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	list, err := h.campaignLogic.GetCampaigns(c.Query("phase"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动列表成功", toCampaignResponses(list))
}

// GetCampaign 获取单个活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	details, err := h.campaignLogic.GetCampaign(handle)
	if err != nil {
		FailResponse(c, err)
		return
	}
	resp := toCampaignResponse(details)

	if details.Phase == campaign.PhaseClosed {
		row, err := h.campaignLogic.GetDisbursement(handle)
		if err != nil {
			FailResponse(c, err)
			return
		}
		resp.Disbursement = toDisbursementResponse(row)
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", resp)
}

// GetTimeLeft 获取活动剩余时间
func (h *CampaignHandler) GetTimeLeft(c *gin.Context) {
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	left, err := h.campaignLogic.GetTimeLeft(handle)
	if err != nil {
		FailResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取剩余时间成功", TimeLeftResponse{
		Days:    left.Days,
		Hours:   left.Hours,
		Minutes: left.Minutes,
	})
}

// StartCampaign 启动活动
func (h *CampaignHandler) StartCampaign(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req StartCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.campaignLogic.Start(caller, handle, req.DurationDays); err != nil {
		FailResponse(c, err)
		return
	}

	details, err := h.campaignLogic.GetCampaign(handle)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "活动启动成功", toCampaignResponse(details))
}

// RegisterContributor 注册调用者为贡献者
func (h *CampaignHandler) RegisterContributor(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Register(handle, caller); err != nil {
		FailResponse(c, err)
		return
	}

	contribution, err := h.campaignLogic.GetContributions(handle, caller)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "注册成功", toContributionResponse(contribution))
}

// SubmitContent 提交内容
func (h *CampaignHandler) SubmitContent(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req SubmitContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	contribution, err := h.campaignLogic.SubmitContent(handle, caller, req.ContentRef)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "内容提交成功", toContributionResponse(contribution))
}

// GetContributions 获取贡献者的提交记录
func (h *CampaignHandler) GetContributions(c *gin.Context) {
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := parseAddress(c.Param("address"), errInvalidAddress)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	contribution, err := h.campaignLogic.GetContributions(handle, identity)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取提交记录成功", toContributionResponse(contribution))
}

// CloseCampaign 关闭活动并把奖池发放给收款人
func (h *CampaignHandler) CloseCampaign(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req CloseCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	receiver, err := parseAddress(req.Receiver, errInvalidReceiver)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.campaignLogic.Close(c.Request.Context(), caller, handle, receiver)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "活动已关闭", DisbursementResponse{
		Campaign: d.Campaign.Hex(),
		Receiver: d.Receiver.Hex(),
		Amount:   d.Amount,
		ClosedAt: d.ClosedAt,
	})
}

// CancelCampaign 中止活动
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Cancel(caller, handle); err != nil {
		FailResponse(c, err)
		return
	}

	details, err := h.campaignLogic.GetCampaign(handle)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "活动已中止", toCampaignResponse(details))
}

// Deposit 活动创建后的转入一律拒绝
func (h *CampaignHandler) Deposit(c *gin.Context) {
	caller, ok := bindCaller(c)
	if !ok {
		return
	}
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaignLogic.Deposit(handle, caller, req.Amount); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "转入成功", nil)
}

// GetEvents 获取活动的事件记录
func (h *CampaignHandler) GetEvents(c *gin.Context) {
	handle, err := parseAddress(c.Param("handle"), errInvalidHandle)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.campaignLogic.IsKnown(handle) {
		ErrorResponse(c, http.StatusNotFound, "活动不存在")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	events, total, err := h.eventLogic.GetEvents(handle, c.Query("type"), page, pageSize)
	if err != nil {
		FailResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取事件记录成功", GetEventsResponse{
		Events: toEventResponses(events),
		Pagination: Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetOwnerCampaigns 获取所有者名下的活动
func (h *CampaignHandler) GetOwnerCampaigns(c *gin.Context) {
	owner, err := parseAddress(c.Param("address"), errInvalidAddress)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "获取活动列表成功", toCampaignResponses(h.campaignLogic.GetCampaignsByOwner(owner)))
}
