package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	// HTML 转义
	assert.Equal(t, "&lt;script&gt;", SanitizeString("<script>"))

	// 控制字符被移除,换行和制表符保留
	assert.Equal(t, "a\nb\tc", SanitizeString("a\nb\tc\x00\x07"))
}

func TestValidateContentID(t *testing.T) {
	assert.NoError(t, ValidateContentID("post-42"))
	assert.NoError(t, ValidateContentID("a_B_1"))

	assert.ErrorIs(t, ValidateContentID(""), ErrEmptyID)
	assert.ErrorIs(t, ValidateContentID("post 42"), ErrInvalidIDFormat)
	assert.ErrorIs(t, ValidateContentID("post;drop"), ErrInvalidIDFormat)
	assert.ErrorIs(t, ValidateContentID(strings.Repeat("a", 65)), ErrIDTooLong)
}

func TestValidateFeedbackBody(t *testing.T) {
	body, err := ValidateFeedbackBody("  请再补充一下结论  ")
	require.NoError(t, err)
	assert.Equal(t, "请再补充一下结论", body)

	_, err = ValidateFeedbackBody("   ")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = ValidateFeedbackBody(strings.Repeat("x", 65536))
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestTrimAndValidate(t *testing.T) {
	got, err := TrimAndValidate("  hello  ", 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = TrimAndValidate("too long here", 5)
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestValidateHistorySortField(t *testing.T) {
	assert.NoError(t, ValidateHistorySortField("created_at"))
	assert.NoError(t, ValidateHistorySortField("Approver_ID"))

	assert.Error(t, ValidateHistorySortField(""))
	assert.Error(t, ValidateHistorySortField("created_at; DROP TABLE"))
}

func TestSanitizeSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", SanitizeSortOrder(" asc "))
	assert.Equal(t, "DESC", SanitizeSortOrder("desc"))
	assert.Equal(t, "DESC", SanitizeSortOrder("sideways"))
}
