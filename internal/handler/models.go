package handler

import (
	"time"

	"github.com/blues/crowdcampaign/internal/campaign"
	"github.com/blues/crowdcampaign/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 活动相关请求模型

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	ExampleContentRefs      []string `json:"exampleContentRefs"`
	MinimumContentThreshold int64    `json:"minimumContentThreshold"`
	Deposit                 int64    `json:"deposit"`   // 随创建一次性托管的奖池
	FundingTx               string   `json:"fundingTx"` // 链上发放时押金转入托管账户的交易哈希
}

// CreditBalanceRequest 管理员充值请求
type CreditBalanceRequest struct {
	Amount int64 `json:"amount"`
}

// StartCampaignRequest 启动活动请求
type StartCampaignRequest struct {
	DurationDays int64 `json:"durationDays"`
}

// SubmitContentRequest 提交内容请求
type SubmitContentRequest struct {
	ContentRef string `json:"contentRef"`
}

// CloseCampaignRequest 关闭活动请求
type CloseCampaignRequest struct {
	Receiver string `json:"receiver" binding:"required"`
}

// DepositRequest 转入请求
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// 活动相关响应模型

// CampaignResponse 活动响应模型
type CampaignResponse struct {
	Handle                  string     `json:"handle"`
	Owner                   string     `json:"owner"`
	Phase                   string     `json:"phase"`
	Active                  bool       `json:"active"`
	Name                    string     `json:"name"`
	Description             string     `json:"description"`
	ExampleContentRefs      []string   `json:"exampleContentRefs"`
	RewardPool              int64      `json:"rewardPool"`
	MinimumContentThreshold int64      `json:"minimumContentThreshold"`
	SubmittedCount          int64      `json:"submittedCount"`
	ContributorCount        int        `json:"contributorCount"`
	Contributors            []string   `json:"contributors"`
	DurationDays            int64      `json:"durationDays"`
	EndTime                 *time.Time `json:"endTime"`
	CreatedAt               time.Time  `json:"createdAt"`

	Disbursement *DisbursementResponse `json:"disbursement,omitempty"`
}

// TimeLeftResponse 剩余时间响应
type TimeLeftResponse struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

// ContributionResponse 贡献者提交记录响应
type ContributionResponse struct {
	Identity    string   `json:"identity"`
	Count       int      `json:"count"`
	ContentRefs []string `json:"contentRefs"`
}

// DisbursementResponse 发放结果响应
type DisbursementResponse struct {
	Campaign string    `json:"campaign"`
	Receiver string    `json:"receiver"`
	Amount   int64     `json:"amount"`
	Backend  string    `json:"backend,omitempty"`
	ClosedAt time.Time `json:"closedAt"`
}

// EventResponse 活动事件响应
type EventResponse struct {
	ID         int64     `json:"id"`
	Seq        int64     `json:"seq"`
	Type       string    `json:"type"`
	Data       string    `json:"data"`
	OccurredAt time.Time `json:"occurredAt"`
}

// GetEventsResponse 活动事件列表响应
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// BalanceResponse 账本余额响应
type BalanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

func toCampaignResponse(d campaign.Details) CampaignResponse {
	contributors := make([]string, len(d.Contributors))
	for i, a := range d.Contributors {
		contributors[i] = a.Hex()
	}
	resp := CampaignResponse{
		Handle:                  d.Handle.Hex(),
		Owner:                   d.Owner.Hex(),
		Phase:                   d.Phase.String(),
		Active:                  d.Active,
		Name:                    d.Name,
		Description:             d.Description,
		ExampleContentRefs:      d.ExampleContentRefs,
		RewardPool:              d.RewardPool,
		MinimumContentThreshold: d.MinimumContentThreshold,
		SubmittedCount:          d.SubmittedCount,
		ContributorCount:        d.ContributorCount,
		Contributors:            contributors,
		DurationDays:            d.DurationDays,
		CreatedAt:               d.CreatedAt,
	}
	if !d.EndTime.IsZero() {
		endTime := d.EndTime
		resp.EndTime = &endTime
	}
	return resp
}

func toCampaignResponses(list []campaign.Details) []CampaignResponse {
	out := make([]CampaignResponse, len(list))
	for i, d := range list {
		out[i] = toCampaignResponse(d)
	}
	return out
}

func toContributionResponse(c campaign.Contribution) ContributionResponse {
	refs := c.ContentRefs
	if refs == nil {
		refs = []string{}
	}
	return ContributionResponse{
		Identity:    c.Identity.Hex(),
		Count:       c.Count,
		ContentRefs: refs,
	}
}

func toEventResponses(events []model.EventModel) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = EventResponse{
			ID:         e.Id,
			Seq:        e.Seq,
			Type:       e.EventType,
			Data:       e.Data,
			OccurredAt: e.OccurredAt,
		}
	}
	return out
}

func toDisbursementResponse(row *model.DisbursementModel) *DisbursementResponse {
	if row == nil {
		return nil
	}
	return &DisbursementResponse{
		Campaign: row.CampaignHandle,
		Receiver: row.ReceiverAddress,
		Amount:   row.Amount,
		Backend:  row.Backend,
		ClosedAt: row.DisbursedAt,
	}
}
