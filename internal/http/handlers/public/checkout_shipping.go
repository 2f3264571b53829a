package public

import (
	"github.com/commerce-next/internal/http/handlers/shared"
	"github.com/commerce-next/internal/http/response"
	"github.com/commerce-next/internal/service"
	"github.com/commerce-next/internal/shipping"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// quoteAddressRequest 收货地址
type quoteAddressRequest struct {
	Address       string `json:"address"`
	City          string `json:"city"`
	StateProvince string `json:"state_province"`
	PostalCode    string `json:"postal_code" binding:"required"`
	CountryCode   string `json:"country_code" binding:"required"`
}

// quotePackageRequest 包裹明细
type quotePackageRequest struct {
	PackagingType string `json:"packaging_type"`
	Weight        string `json:"weight" binding:"required"`
	Length        string `json:"length" binding:"required"`
	Width         string `json:"width" binding:"required"`
	Height        string `json:"height" binding:"required"`
}

// shippingQuoteRequest 询价请求体
type shippingQuoteRequest struct {
	StoreCode string                `json:"store_code" binding:"required"`
	Delivery  quoteAddressRequest   `json:"delivery" binding:"required"`
	Packages  []quotePackageRequest `json:"packages" binding:"required,min=1"`
	Locale    string                `json:"locale"`
}

// GetShippingQuotes 运费询价
func (h *Handler) GetShippingQuotes(c *gin.Context) {
	var req shippingQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	store, err := h.MerchantRepo.GetByCode(req.StoreCode)
	if err != nil {
		response.Error(c, response.CodeInternal, "store lookup failed")
		return
	}
	if store == nil {
		response.NotFound(c, "store not found")
		return
	}

	packages := make([]shipping.PackageDetails, 0, len(req.Packages))
	for _, pkg := range req.Packages {
		details, err := toPackageDetails(pkg)
		if err != nil {
			response.BadRequest(c, "invalid package dimensions")
			return
		}
		packages = append(packages, details)
	}

	options, err := h.ShippingService.GetShippingQuotes(service.QuoteInput{
		StoreID: store.ID,
		Delivery: shipping.Address{
			Address:       req.Delivery.Address,
			City:          req.Delivery.City,
			StateProvince: req.Delivery.StateProvince,
			PostalCode:    req.Delivery.PostalCode,
			CountryCode:   req.Delivery.CountryCode,
		},
		Packages: packages,
		Locale:   req.Locale,
		Context:  c.Request.Context(),
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, gin.H{"options": options})
}

func toPackageDetails(pkg quotePackageRequest) (shipping.PackageDetails, error) {
	weight, err := decimal.NewFromString(pkg.Weight)
	if err != nil {
		return shipping.PackageDetails{}, err
	}
	length, err := decimal.NewFromString(pkg.Length)
	if err != nil {
		return shipping.PackageDetails{}, err
	}
	width, err := decimal.NewFromString(pkg.Width)
	if err != nil {
		return shipping.PackageDetails{}, err
	}
	height, err := decimal.NewFromString(pkg.Height)
	if err != nil {
		return shipping.PackageDetails{}, err
	}
	return shipping.PackageDetails{
		PackagingType: pkg.PackagingType,
		Weight:        weight,
		Length:        length,
		Width:         width,
		Height:        height,
	}, nil
}
