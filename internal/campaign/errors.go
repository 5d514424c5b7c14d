package campaign

import "fmt"

// Kind 错误分类
type Kind string

const (
	KindValidation    Kind = "validation"    // 参数不合法
	KindAuthorization Kind = "authorization" // 调用者无权限
	KindState         Kind = "state"         // 生命周期状态不允许
	KindTransfer      Kind = "transfer"      // 外部转账失败
)

// Error 活动领域错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind) + " error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrState) 这类按分类的判断成立
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// 分类哨兵错误
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrState         = &Error{Kind: KindState}
	ErrTransfer      = &Error{Kind: KindTransfer}
)

// 创建参数错误
var (
	ErrEmptyName           = newError(KindValidation, "活动名称不能为空")
	ErrEmptyDescription    = newError(KindValidation, "活动描述不能为空")
	ErrNoExampleContent    = newError(KindValidation, "示例内容不能为空")
	ErrInvalidThreshold    = newError(KindValidation, "最小内容数量必须大于0")
	ErrInvalidDeposit      = newError(KindValidation, "奖池金额必须大于0")
	ErrInvalidOwner        = newError(KindValidation, "活动所有者地址不能为空")
	ErrDurationTooShort    = newError(KindValidation, fmt.Sprintf("活动时长不能少于%d天", MinDurationDays))
	ErrEmptyContentRef     = newError(KindValidation, "内容引用不能为空")
	ErrInvalidReceiver     = newError(KindValidation, "收款地址不能为空")
	ErrNothingToDisburse   = newError(KindValidation, "奖池为空，无可发放金额")
	ErrDepositRejected     = newError(KindValidation, "活动不接受额外转入")
	ErrInvalidIdentity     = newError(KindValidation, "贡献者地址不能为空")
	ErrInvalidRestoreState = newError(KindValidation, "活动快照数据不一致")
)

// 权限错误
var (
	ErrNotOwner       = newError(KindAuthorization, "只有活动所有者可以执行该操作")
	ErrNotContributor = newError(KindAuthorization, "调用者尚未注册为贡献者")
)

// 状态错误
var (
	ErrPaused             = newError(KindState, "系统已暂停")
	ErrAlreadyStarted     = newError(KindState, "活动已启动")
	ErrNotStarted         = newError(KindState, "活动尚未启动")
	ErrExpired            = newError(KindState, "活动已过期")
	ErrAlreadyClosed      = newError(KindState, "活动已关闭")
	ErrAlreadyRegistered  = newError(KindState, "已注册")
	ErrCampaignSucceeding = newError(KindState, "活动表现达标，需等待自然结束")
)

// transferError 包装外部转账失败
func transferError(err error) error {
	return &Error{Kind: KindTransfer, Message: "奖池转账失败", Err: err}
}
