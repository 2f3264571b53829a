package admin

import (
	"strconv"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/http/handlers/shared"
	"github.com/commerce-next/internal/http/response"
	"github.com/commerce-next/internal/integration"

	"github.com/gin-gonic/gin"
)

func configGroupFor(moduleType string) (string, bool) {
	switch moduleType {
	case constants.ModuleTypePayment:
		return constants.ConfigGroupPaymentModules, true
	case constants.ModuleTypeShipping:
		return constants.ConfigGroupShippingModules, true
	default:
		return "", false
	}
}

func parseStoreID(c *gin.Context) (uint, bool) {
	storeID, err := strconv.ParseUint(c.Param("storeID"), 10, 32)
	if err != nil || storeID == 0 {
		response.BadRequest(c, "invalid store id")
		return 0, false
	}
	return uint(storeID), true
}

// ListAvailableModules 列出目录中的可用模块
func (h *Handler) ListAvailableModules(c *gin.Context) {
	moduleType := c.Param("moduleType")
	if _, ok := configGroupFor(moduleType); !ok {
		response.BadRequest(c, "invalid module type")
		return
	}
	modules, err := h.ModuleRepo.ListByType(moduleType)
	if err != nil {
		response.Error(c, response.CodeInternal, "module list failed")
		return
	}
	response.Success(c, gin.H{"modules": modules})
}

// ListConfiguredModules 列出商户已配置模块（密钥不回显）
func (h *Handler) ListConfiguredModules(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}
	group, ok := configGroupFor(c.Param("moduleType"))
	if !ok {
		response.BadRequest(c, "invalid module type")
		return
	}
	var configured map[string]*integration.Configuration
	var err error
	if group == constants.ConfigGroupPaymentModules {
		configured, err = h.ModuleConfigService.GetPaymentModulesConfigured(storeID)
	} else {
		configured, err = h.ModuleConfigService.GetShippingModulesConfigured(storeID)
	}
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	summaries := make([]gin.H, 0, len(configured))
	for code, cfg := range configured {
		summaries = append(summaries, gin.H{
			"module_code":      code,
			"active":           cfg.Active,
			"default_selected": cfg.DefaultSelected,
			"environment":      cfg.Environment,
		})
	}
	response.Success(c, gin.H{"modules": summaries})
}

// saveModuleConfigRequest 保存模块配置请求体
type saveModuleConfigRequest struct {
	ModuleCode      string              `json:"module_code" binding:"required"`
	Active          bool                `json:"active"`
	DefaultSelected bool                `json:"default_selected"`
	Environment     string              `json:"environment"`
	TransactionType string              `json:"transaction_type"`
	Keys            map[string]string   `json:"integration_keys"`
	Options         map[string][]string `json:"integration_options"`
}

// SaveModuleConfiguration 保存模块配置，保存前按模块规则校验
func (h *Handler) SaveModuleConfiguration(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}
	moduleType := c.Param("moduleType")
	group, ok := configGroupFor(moduleType)
	if !ok {
		response.BadRequest(c, "invalid module type")
		return
	}
	var req saveModuleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	cfg := &integration.Configuration{
		ModuleCode:      req.ModuleCode,
		Active:          req.Active,
		DefaultSelected: req.DefaultSelected,
		Environment:     req.Environment,
		TransactionType: req.TransactionType,
		Keys:            req.Keys,
		Options:         req.Options,
	}

	if moduleType == constants.ModuleTypePayment {
		module, found := h.PaymentRegistry.Get(req.ModuleCode)
		if !found {
			response.BadRequest(c, "unsupported module code")
			return
		}
		if err := module.ValidateConfiguration(cfg); err != nil {
			shared.RespondError(c, err)
			return
		}
	} else {
		module, found := h.ShippingRegistry.Get(req.ModuleCode)
		if !found {
			response.BadRequest(c, "unsupported module code")
			return
		}
		if err := module.ValidateModuleConfiguration(cfg); err != nil {
			shared.RespondError(c, err)
			return
		}
	}

	var err error
	if group == constants.ConfigGroupPaymentModules {
		err = h.ModuleConfigService.SavePaymentModuleConfiguration(storeID, cfg)
	} else {
		err = h.ModuleConfigService.SaveShippingModuleConfiguration(storeID, cfg)
	}
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "configuration saved", nil)
}

// RemoveModuleConfiguration 移除模块配置
func (h *Handler) RemoveModuleConfiguration(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}
	group, ok := configGroupFor(c.Param("moduleType"))
	if !ok {
		response.BadRequest(c, "invalid module type")
		return
	}
	moduleCode := c.Param("moduleCode")
	var err error
	if group == constants.ConfigGroupPaymentModules {
		err = h.ModuleConfigService.RemovePaymentModuleConfiguration(storeID, moduleCode)
	} else {
		err = h.ModuleConfigService.RemoveShippingModuleConfiguration(storeID, moduleCode)
	}
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "configuration removed", nil)
}
