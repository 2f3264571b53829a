package integration

import "strings"

// Configuration 单个模块的商户级配置。
// 整个 map[moduleCode]Configuration 以加密 JSON 形式保存在
// 商户配置行里，不单独落库。
type Configuration struct {
	ModuleCode      string              `json:"moduleCode"`
	Active          bool                `json:"active"`
	DefaultSelected bool                `json:"defaultSelected"`
	Environment     string              `json:"environment,omitempty"`
	TransactionType string              `json:"transactionType,omitempty"`
	Keys            map[string]string   `json:"integrationKeys,omitempty"`
	Options         map[string][]string `json:"integrationOptions,omitempty"`
}

// Key 读取凭证键值（去除首尾空白）
func (c *Configuration) Key(name string) string {
	if c == nil || c.Keys == nil {
		return ""
	}
	return strings.TrimSpace(c.Keys[name])
}

// Option 读取选项列表
func (c *Configuration) Option(name string) []string {
	if c == nil || c.Options == nil {
		return nil
	}
	return c.Options[name]
}
