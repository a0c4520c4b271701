package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateGate(t *testing.T) {
	base := GateInput{
		PreviousStatus:     ContentStatusDraft,
		TargetStatus:       ContentStatusPublish,
		TypeInScope:        true,
		RemainingApprovals: 2,
	}

	tests := []struct {
		name   string
		modify func(*GateInput)
		want   GateDecision
	}{
		{
			name:   "未达法定数的发布被否决",
			modify: func(in *GateInput) {},
			want:   GateVeto,
		},
		{
			name:   "目标不是发布时放行",
			modify: func(in *GateInput) { in.TargetStatus = ContentStatusDraft },
			want:   GateAllow,
		},
		{
			name:   "已发布内容的编辑不重复否决",
			modify: func(in *GateInput) { in.PreviousStatus = ContentStatusPublish },
			want:   GateAllow,
		},
		{
			name:   "全局允许未审批发布时放行",
			modify: func(in *GateInput) { in.PublishWithoutApproval = true },
			want:   GateAllow,
		},
		{
			name:   "类型不在工作流范围内时放行",
			modify: func(in *GateInput) { in.TypeInScope = false },
			want:   GateAllow,
		},
		{
			name:   "忽略标记放行",
			modify: func(in *GateInput) { in.Ignored = true },
			want:   GateAllow,
		},
		{
			name:   "剩余审批数为 0 时放行",
			modify: func(in *GateInput) { in.RemainingApprovals = 0 },
			want:   GateAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.modify(&in)
			assert.Equal(t, tt.want, EvaluateGate(in))
		})
	}
}
