// Package ups 对接 UPS 费率 API 的运费报价模块。
// 请求体为两段 XML 文档拼接：访问凭证 AccessRequest 与
// RatingServiceSelectionRequest。
package ups

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/shipping"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout       = 15 * time.Second
	defaultPackagingType = "02"
	statusSuccess        = "1"
)

var defaultSupportedCountries = []string{"US", "CA"}

// Module UPS 报价模块
type Module struct {
	HTTPClient *http.Client
}

// New 创建模块
func New() *Module {
	return &Module{}
}

// Code 模块代码
func (m *Module) Code() string {
	return constants.ModuleCodeUPS
}

// ValidateModuleConfiguration 校验凭证与包裹类型，缺失字段聚合返回
func (m *Module) ValidateModuleConfiguration(cfg *integration.Configuration) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", integration.ErrConfiguration)
	}
	missing := make([]string, 0, 4)
	for _, key := range []string{"accessKey", "userId", "password"} {
		if cfg.Key(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(cfg.Option("packages")) == 0 {
		missing = append(missing, "packages")
	}
	if len(missing) > 0 {
		return integration.NewFieldsError(integration.ErrConfiguration, "ups configuration incomplete", missing)
	}
	return nil
}

// GetShippingQuotes 向 UPS 费率接口询价
func (m *Module) GetShippingQuotes(ctx context.Context, cfg *integration.Configuration, req shipping.QuoteRequest) ([]shipping.ShippingOption, error) {
	if err := m.ValidateModuleConfiguration(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Delivery.PostalCode) == "" || len(req.Packages) == 0 {
		return nil, nil
	}
	if !countrySupported(cfg, req.Delivery.CountryCode) {
		return nil, nil
	}

	environment := cfg.Environment
	if environment == "" {
		environment = req.Environment
	}
	endpoint, err := integration.ResolveEndpoint(req.EndpointConfig, environment)
	if err != nil {
		return nil, err
	}

	body, err := m.buildRequestBody(cfg, req)
	if err != nil {
		return nil, err
	}
	respBody, err := m.post(ctx, endpoint.URL(), body)
	if err != nil {
		return nil, err
	}
	return m.parseResponse(respBody, req)
}

func countrySupported(cfg *integration.Configuration, countryCode string) bool {
	supported := cfg.Option("supportedCountries")
	if len(supported) == 0 {
		supported = defaultSupportedCountries
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	for _, code := range supported {
		if strings.ToUpper(strings.TrimSpace(code)) == countryCode {
			return true
		}
	}
	return false
}

type accessRequest struct {
	XMLName             xml.Name `xml:"AccessRequest"`
	AccessLicenseNumber string   `xml:"AccessLicenseNumber"`
	UserID              string   `xml:"UserId"`
	Password            string   `xml:"Password"`
}

type ratingRequest struct {
	XMLName  xml.Name      `xml:"RatingServiceSelectionRequest"`
	Request  requestBlock  `xml:"Request"`
	Shipment shipmentBlock `xml:"Shipment"`
}

type requestBlock struct {
	RequestAction string `xml:"RequestAction"`
	RequestOption string `xml:"RequestOption"`
}

type shipmentBlock struct {
	Shipper  party          `xml:"Shipper"`
	ShipTo   party          `xml:"ShipTo"`
	Packages []packageBlock `xml:"Package"`
}

type party struct {
	Address addressBlock `xml:"Address"`
}

type addressBlock struct {
	AddressLine1      string `xml:"AddressLine1,omitempty"`
	City              string `xml:"City,omitempty"`
	StateProvinceCode string `xml:"StateProvinceCode,omitempty"`
	PostalCode        string `xml:"PostalCode,omitempty"`
	CountryCode       string `xml:"CountryCode"`
}

type packageBlock struct {
	PackagingType codeBlock       `xml:"PackagingType"`
	PackageWeight weightBlock     `xml:"PackageWeight"`
	Dimensions    dimensionsBlock `xml:"Dimensions"`
}

type codeBlock struct {
	Code string `xml:"Code"`
}

type weightBlock struct {
	Unit   codeBlock `xml:"UnitOfMeasurement"`
	Weight string    `xml:"Weight"`
}

type dimensionsBlock struct {
	Unit   codeBlock `xml:"UnitOfMeasurement"`
	Length string    `xml:"Length"`
	Width  string    `xml:"Width"`
	Height string    `xml:"Height"`
}

type ratingResponse struct {
	XMLName        xml.Name        `xml:"RatingServiceSelectionResponse"`
	Response       responseBlock   `xml:"Response"`
	RatedShipments []ratedShipment `xml:"RatedShipment"`
}

type responseBlock struct {
	ResponseStatusCode        string        `xml:"ResponseStatusCode"`
	ResponseStatusDescription string        `xml:"ResponseStatusDescription"`
	Error                     responseError `xml:"Error"`
}

type responseError struct {
	ErrorCode        string `xml:"ErrorCode"`
	ErrorDescription string `xml:"ErrorDescription"`
}

type ratedShipment struct {
	Service                  codeBlock    `xml:"Service"`
	TotalCharges             totalCharges `xml:"TotalCharges"`
	GuaranteedDaysToDelivery string       `xml:"GuaranteedDaysToDelivery"`
}

type totalCharges struct {
	CurrencyCode  string `xml:"CurrencyCode"`
	MonetaryValue string `xml:"MonetaryValue"`
}

func (m *Module) buildRequestBody(cfg *integration.Configuration, req shipping.QuoteRequest) ([]byte, error) {
	weightUnit := "LBS"
	if req.WeightUnit == constants.WeightUnitKG {
		weightUnit = "KGS"
	}
	measureUnit := "IN"
	if req.MeasureUnit == constants.MeasureUnitCM {
		measureUnit = "CM"
	}
	packagingType := defaultPackagingType
	if configured := cfg.Option("packages"); len(configured) > 0 {
		packagingType = configured[0]
	}

	packages := make([]packageBlock, 0, len(req.Packages))
	for _, pkg := range req.Packages {
		code := pkg.PackagingType
		if code == "" {
			code = packagingType
		}
		packages = append(packages, packageBlock{
			PackagingType: codeBlock{Code: code},
			PackageWeight: weightBlock{
				Unit:   codeBlock{Code: weightUnit},
				Weight: pkg.Weight.StringFixed(1),
			},
			Dimensions: dimensionsBlock{
				Unit:   codeBlock{Code: measureUnit},
				Length: pkg.Length.StringFixed(1),
				Width:  pkg.Width.StringFixed(1),
				Height: pkg.Height.StringFixed(1),
			},
		})
	}

	access := accessRequest{
		AccessLicenseNumber: cfg.Key("accessKey"),
		UserID:              cfg.Key("userId"),
		Password:            cfg.Key("password"),
	}
	rating := ratingRequest{
		Request: requestBlock{
			RequestAction: "Rate",
			RequestOption: "Shop",
		},
		Shipment: shipmentBlock{
			Shipper:  party{Address: toAddressBlock(req.Origin)},
			ShipTo:   party{Address: toAddressBlock(req.Delivery)},
			Packages: packages,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	accessXML, err := xml.Marshal(access)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal access request failed", integration.ErrProtocol)
	}
	buf.Write(accessXML)
	buf.WriteString(xml.Header)
	ratingXML, err := xml.Marshal(rating)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal rating request failed", integration.ErrProtocol)
	}
	buf.Write(ratingXML)
	return buf.Bytes(), nil
}

func toAddressBlock(addr shipping.Address) addressBlock {
	return addressBlock{
		AddressLine1:      addr.Address,
		City:              addr.City,
		StateProvinceCode: addr.StateProvince,
		PostalCode:        addr.PostalCode,
		CountryCode:       strings.ToUpper(strings.TrimSpace(addr.CountryCode)),
	}
}

func (m *Module) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", integration.ErrCommunication)
	}
	req.Header.Set("Content-Type", "application/xml")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrCommunication, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", integration.ErrCommunication)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", integration.ErrCommunication, resp.StatusCode)
	}
	return respBody, nil
}

func (m *Module) parseResponse(body []byte, req shipping.QuoteRequest) ([]shipping.ShippingOption, error) {
	var parsed ratingResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode rating response failed", integration.ErrProtocol)
	}
	if code := strings.TrimSpace(parsed.Response.Error.ErrorCode); code != "" {
		return nil, fmt.Errorf("%w: %s", integration.ErrProtocol, strings.TrimSpace(parsed.Response.Error.ErrorDescription))
	}
	if strings.TrimSpace(parsed.Response.ResponseStatusCode) != statusSuccess {
		return nil, fmt.Errorf("%w: rating status %s", integration.ErrProtocol, strings.TrimSpace(parsed.Response.ResponseStatusCode))
	}
	if len(parsed.RatedShipments) == 0 {
		return nil, fmt.Errorf("%w: no rated shipments returned", integration.ErrProtocol)
	}

	options := make([]shipping.ShippingOption, 0, len(parsed.RatedShipments))
	for _, shipment := range parsed.RatedShipments {
		serviceCode := strings.TrimSpace(shipment.Service.Code)
		priceText := strings.TrimSpace(shipment.TotalCharges.MonetaryValue)
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, fmt.Errorf("%w: unparsable price %q for service %s", integration.ErrProtocol, priceText, serviceCode)
		}
		option := shipping.ShippingOption{
			Code:     serviceCode,
			Name:     serviceCode,
			Price:    price,
			Currency: strings.TrimSpace(shipment.TotalCharges.CurrencyCode),
		}
		if name, ok := req.ServiceNames[serviceCode]; ok && name != "" {
			option.Name = name
		}
		if days := strings.TrimSpace(shipment.GuaranteedDaysToDelivery); days != "" {
			if parsedDays, err := strconv.Atoi(days); err == nil {
				option.DeliveryDays = parsedDays
			}
		}
		options = append(options, option)
	}
	return options, nil
}
