package telnet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvaluateConditions 三种条件类型的判定语义
func TestEvaluateConditions(t *testing.T) {
	cases := []struct {
		name     string
		cond     Condition
		response string
		want     bool
	}{
		{"包含命中", Condition{Kind: ConditionContains, Pattern: "foo"}, "foobar", true},
		{"包含未命中", Condition{Kind: ConditionContains, Pattern: "baz"}, "foobar", false},
		{"不包含命中", Condition{Kind: ConditionNotContains, Pattern: "baz"}, "foobar", true},
		{"不包含未命中", Condition{Kind: ConditionNotContains, Pattern: "foo"}, "foobar", false},
		{"正则搜索命中", Condition{Kind: ConditionRegex, Pattern: `\d+`}, "port 80", true},
		{"正则搜索未命中", Condition{Kind: ConditionRegex, Pattern: `\d+`}, "no numbers", false},
		{"正则为搜索而非整串匹配", Condition{Kind: ConditionRegex, Pattern: `^port`}, "port 80 open", true},
		{"未识别类型视为无约束", Condition{Kind: conditionUnknown, Pattern: "whatever"}, "anything", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.cond, tc.response))
		})
	}
}

// TestEvaluateInvalidRegex 非法正则按失败处理而非 panic
func TestEvaluateInvalidRegex(t *testing.T) {
	cond := Condition{Kind: ConditionRegex, Pattern: "("}
	assert.NotPanics(t, func() {
		assert.False(t, Evaluate(cond, "anything"))
	})
}

// TestConditionKindJSON 类型名序列化与未识别名字的宽容解析
func TestConditionKindJSON(t *testing.T) {
	var c Condition
	require.NoError(t, json.Unmarshal([]byte(`{"type":"not_contains","pattern":"ERROR"}`), &c))
	assert.Equal(t, ConditionNotContains, c.Kind)
	assert.Equal(t, "ERROR", c.Pattern)

	// 未识别的类型名不报错，求值时无约束
	require.NoError(t, json.Unmarshal([]byte(`{"type":"fuzzy","pattern":"x"}`), &c))
	assert.True(t, Evaluate(c, "whatever"))

	out, err := json.Marshal(Condition{Kind: ConditionRegex, Pattern: `\d+`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"regex","pattern":"\\d+"}`, string(out))
}
