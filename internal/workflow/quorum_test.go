package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingStates(t *testing.T) {
	// 未初始化与 0 严格区分
	unset := Unset()
	assert.True(t, unset.IsUnset())
	assert.False(t, unset.IsReady())
	assert.Equal(t, 0, unset.Count())
	assert.Equal(t, "", unset.String())

	ready := Ready()
	assert.False(t, ready.IsUnset())
	assert.True(t, ready.IsReady())
	assert.Equal(t, 0, ready.Count())
	assert.Equal(t, "ready", ready.String())

	two := Count(2)
	assert.False(t, two.IsUnset())
	assert.False(t, two.IsReady())
	assert.Equal(t, 2, two.Count())
	assert.Equal(t, "2", two.String())
}

func TestCountClampsToReady(t *testing.T) {
	// 剩余数永远不为负
	assert.True(t, Count(0).IsReady())
	assert.True(t, Count(-3).IsReady())
}

func TestParseRemaining(t *testing.T) {
	r, err := ParseRemaining("")
	require.NoError(t, err)
	assert.True(t, r.IsUnset())

	r, err = ParseRemaining("ready")
	require.NoError(t, err)
	assert.True(t, r.IsReady())

	r, err = ParseRemaining("3")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Count())

	// 非法值
	_, err = ParseRemaining("abc")
	assert.Error(t, err)
	_, err = ParseRemaining("-1")
	assert.Error(t, err)
}

func TestParseRemainingRoundTrip(t *testing.T) {
	for _, r := range []Remaining{Unset(), Ready(), Count(1), Count(7)} {
		parsed, err := ParseRemaining(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
}

func TestSeed(t *testing.T) {
	// 配置为 0 表示不设门槛,首次发起即就绪
	assert.True(t, Seed(0).IsReady())
	assert.True(t, Seed(-1).IsReady())
	assert.Equal(t, 2, Seed(2).Count())
}

func TestAfterApproval(t *testing.T) {
	// 正常扣减
	r, ready := AfterApproval(Count(3))
	assert.False(t, ready)
	assert.Equal(t, 2, r.Count())

	// 减到 0 时返回 Ready 哨兵
	r, ready = AfterApproval(Count(1))
	assert.True(t, ready)
	assert.True(t, r.IsReady())

	// 已就绪的值保持不变
	r, ready = AfterApproval(Ready())
	assert.True(t, ready)
	assert.True(t, r.IsReady())

	// 未初始化的值保持不变
	r, ready = AfterApproval(Unset())
	assert.False(t, ready)
	assert.True(t, r.IsUnset())
}

func TestRequiredReviews(t *testing.T) {
	assert.Equal(t, 0, RequiredReviews(-5))
	assert.Equal(t, 0, RequiredReviews(0))
	assert.Equal(t, 3, RequiredReviews(3))
}
