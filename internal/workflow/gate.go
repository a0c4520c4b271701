package workflow

// 内容的发布状态,由外部内容系统定义
const (
	ContentStatusPublish = "publish"
	ContentStatusDraft   = "draft"
)

// GateDecision 发布门的裁决
type GateDecision string

const (
	// GateAllow 放行,不做任何变更
	GateAllow GateDecision = "allow"
	// GateVeto 否决,调用方须将目标状态强制改回草稿
	GateVeto GateDecision = "veto"
)

// GateInput 发布门裁决所需的全部输入
// 配置取调用时刻的快照传入,不读全局状态
type GateInput struct {
	PreviousStatus         string
	TargetStatus           string
	TypeInScope            bool // 内容类型是否启用了审核工作流
	PublishWithoutApproval bool // 全局"允许未审批发布"开关
	Ignored                bool // 内容的忽略标记
	RemainingApprovals     int  // 还差多少次审批
}

// EvaluateGate 在内容状态即将变为已发布时裁决是否放行
// 仅当全部条件同时成立才否决: 目标是发布、之前不是发布(防止对已发布
// 内容的编辑重复否决,也保证同一次状态迁移只被否决一次)、全局不允许
// 未审批发布、内容类型在工作流范围内、未被忽略、剩余审批数大于 0
func EvaluateGate(in GateInput) GateDecision {
	if in.TargetStatus != ContentStatusPublish {
		return GateAllow
	}
	if in.PreviousStatus == ContentStatusPublish {
		return GateAllow
	}
	if in.PublishWithoutApproval {
		return GateAllow
	}
	if !in.TypeInScope {
		return GateAllow
	}
	if in.Ignored {
		return GateAllow
	}
	if in.RemainingApprovals > 0 {
		return GateVeto
	}
	return GateAllow
}
