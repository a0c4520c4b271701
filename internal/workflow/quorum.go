package workflow

import (
	"fmt"
	"strconv"
)

// remainingState 剩余审批数的内部状态
type remainingState int

const (
	remainingUnset remainingState = iota
	remainingCount
	remainingReady
)

// readyMarker 持久化时表示已达法定数的哨兵值
const readyMarker = "ready"

// Remaining 剩余审批数的三态值: 未初始化 / 剩余 n 次 / 已达法定数
// 未初始化与 0 严格区分,避免把"从未发起审核"误判为"已就绪"
type Remaining struct {
	state remainingState
	n     int
}

// Unset 返回未初始化的剩余值
func Unset() Remaining {
	return Remaining{state: remainingUnset}
}

// Count 返回剩余 n 次审批的值
// n <= 0 时直接返回 Ready,剩余数永远不为负
func Count(n int) Remaining {
	if n <= 0 {
		return Ready()
	}
	return Remaining{state: remainingCount, n: n}
}

// Ready 返回已达法定数的哨兵值
func Ready() Remaining {
	return Remaining{state: remainingReady}
}

// IsUnset 判断是否未初始化
func (r Remaining) IsUnset() bool {
	return r.state == remainingUnset
}

// IsReady 判断是否已达法定数
// 仅对 Ready 哨兵为 true,未初始化或默认零值均为 false
func (r Remaining) IsReady() bool {
	return r.state == remainingReady
}

// Count 返回剩余审批次数,Ready 和未初始化均为 0
func (r Remaining) Count() int {
	if r.state != remainingCount {
		return 0
	}
	return r.n
}

// String 序列化为存储格式: "" / 十进制 / "ready"
func (r Remaining) String() string {
	switch r.state {
	case remainingCount:
		return strconv.Itoa(r.n)
	case remainingReady:
		return readyMarker
	default:
		return ""
	}
}

// ParseRemaining 从存储格式解析剩余值
func ParseRemaining(s string) (Remaining, error) {
	switch s {
	case "":
		return Unset(), nil
	case readyMarker:
		return Ready(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Unset(), fmt.Errorf("invalid remaining value %q", s)
	}
	return Count(n), nil
}

// RequiredReviews 返回配置的最小审批数,负值按 0 处理
func RequiredReviews(minRequired int) int {
	if minRequired < 0 {
		return 0
	}
	return minRequired
}

// Seed 依据配置初始化剩余审批数
// 配置为 0 表示不设审批门槛,首次发起即就绪
func Seed(minRequired int) Remaining {
	required := RequiredReviews(minRequired)
	if required == 0 {
		return Ready()
	}
	return Count(required)
}

// AfterApproval 应用一次审批后的剩余值
// 减到 0 时返回 Ready 哨兵而不是 0;已就绪或未初始化的值保持不变,
// 保证剩余数不会为负也不会越过 Ready
func AfterApproval(r Remaining) (Remaining, bool) {
	if r.state != remainingCount {
		return r, r.state == remainingReady
	}
	if r.n <= 1 {
		return Ready(), true
	}
	return Count(r.n - 1), false
}
