package telnet

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
)

// ConditionKind 条件类型，封闭枚举
type ConditionKind int

const (
	ConditionContains ConditionKind = iota
	ConditionNotContains
	ConditionRegex
	// conditionUnknown 反序列化遇到未识别的类型名时使用，求值时视为无约束
	conditionUnknown
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionContains:
		return "contains"
	case ConditionNotContains:
		return "not_contains"
	case ConditionRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// MarshalJSON 序列化为类型名字符串
func (k ConditionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON 从类型名字符串解析；未识别的名字不报错，落到 unknown
func (k *ConditionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseConditionKind(s)
	return nil
}

// ParseConditionKind 宽容解析类型名；未识别的名字落到 unknown，
// 求值时表现为无约束
func ParseConditionKind(s string) ConditionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contains":
		return ConditionContains
	case "not_contains":
		return ConditionNotContains
	case "regex":
		return ConditionRegex
	default:
		return conditionUnknown
	}
}

// Condition 对步骤响应文本的判定谓词，无状态
type Condition struct {
	Kind    ConditionKind `json:"type"`
	Pattern string        `json:"pattern"`
}

// Evaluate 对响应文本求值。regex 为搜索语义而非整串锚定；
// 未识别的条件类型视为无约束，恒为 true
func Evaluate(c Condition, response string) bool {
	switch c.Kind {
	case ConditionContains:
		return strings.Contains(response, c.Pattern)
	case ConditionNotContains:
		return !strings.Contains(response, c.Pattern)
	case ConditionRegex:
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			logger.Warnf("invalid condition regex %q: %v", c.Pattern, err)
			return false
		}
		return re.MatchString(response)
	default:
		return true
	}
}
