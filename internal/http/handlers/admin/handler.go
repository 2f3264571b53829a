// Package admin 商家管理端接口。
package admin

import (
	"github.com/commerce-next/internal/provider"
)

// Handler 管理端处理器
type Handler struct {
	*provider.Container
}

// NewHandler 创建处理器
func NewHandler(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
