package campaign

// Phase 活动生命周期阶段
type Phase int

const (
	PhaseCreated Phase = iota // 已创建，未启动
	PhaseActive               // 进行中
	PhaseClosed               // 已关闭（终态）
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParsePhase 解析阶段字符串
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "created":
		return PhaseCreated, true
	case "active":
		return PhaseActive, true
	case "closed":
		return PhaseClosed, true
	default:
		return 0, false
	}
}

// canTransition 只允许 Created→Active、Created→Closed、Active→Closed
func canTransition(from, to Phase) bool {
	switch from {
	case PhaseCreated:
		return to == PhaseActive || to == PhaseClosed
	case PhaseActive:
		return to == PhaseClosed
	default:
		return false
	}
}
