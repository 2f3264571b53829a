package models

import (
	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/logger"
)

// InitIntegrationModules 初始化内置模块目录。
// 目录是参考数据：已存在的行不覆盖，商户侧的改动只发生在加密配置里。
func InitIntegrationModules() error {
	modules := []IntegrationModule{
		{
			Code:       constants.ModuleCodeStripeCard,
			ModuleType: constants.ModuleTypePayment,
			Regions:    "*",
			ConfigJSON: JSON{
				"env": map[string]interface{}{
					constants.EnvironmentTest: map[string]interface{}{
						"scheme": "https",
						"host":   "api.stripe.com",
					},
					constants.EnvironmentProduction: map[string]interface{}{
						"scheme": "https",
						"host":   "api.stripe.com",
					},
				},
			},
		},
		{
			Code:       constants.ModuleCodeMoneyOrder,
			ModuleType: constants.ModuleTypePayment,
			Regions:    "*",
		},
		{
			Code:       constants.ModuleCodeUPS,
			ModuleType: constants.ModuleTypeShipping,
			Regions:    "US,CA",
			ConfigJSON: JSON{
				"env": map[string]interface{}{
					constants.EnvironmentTest: map[string]interface{}{
						"scheme": "https",
						"host":   "wwwcie.ups.com",
						"port":   "443",
						"path":   "/ups.app/xml/Rate",
					},
					constants.EnvironmentProduction: map[string]interface{}{
						"scheme": "https",
						"host":   "onlinetools.ups.com",
						"port":   "443",
						"path":   "/ups.app/xml/Rate",
					},
				},
			},
			DetailsJSON: JSON{
				"01": "UPS Next Day Air",
				"02": "UPS 2nd Day Air",
				"03": "UPS Ground",
				"07": "UPS Worldwide Express",
				"08": "UPS Worldwide Expedited",
				"11": "UPS Standard",
				"12": "UPS 3 Day Select",
				"13": "UPS Next Day Air Saver",
				"14": "UPS Next Day Air Early A.M.",
				"54": "UPS Worldwide Express Plus",
				"59": "UPS 2nd Day Air A.M.",
				"65": "UPS Saver",
			},
		},
	}

	for _, module := range modules {
		var count int64
		if err := DB.Model(&IntegrationModule{}).Where("code = ?", module.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&module).Error; err != nil {
			return err
		}
		logger.Infow("integration_module_seeded", "code", module.Code, "module_type", module.ModuleType)
	}
	return nil
}
