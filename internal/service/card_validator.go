package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/models"
)

// CardValidator 信用卡校验，收集全部问题字段后一次返回
type CardValidator struct {
	// Enabled 为 false 时跳过全部校验
	Enabled bool
	now     func() time.Time
}

// NewCardValidator 创建校验器
func NewCardValidator(enabled bool) *CardValidator {
	return &CardValidator{Enabled: enabled, now: time.Now}
}

type brandRule struct {
	prefixes []string
	lengths  []int
}

var brandRules = map[string]brandRule{
	constants.CardBrandVisa:       {prefixes: []string{"4"}, lengths: []int{13, 16, 19}},
	constants.CardBrandMastercard: {prefixes: []string{"51", "52", "53", "54", "55", "22", "23", "24", "25", "26", "27"}, lengths: []int{16}},
	constants.CardBrandAmex:       {prefixes: []string{"34", "37"}, lengths: []int{15}},
	constants.CardBrandDiscover:   {prefixes: []string{"6011", "64", "65"}, lengths: []int{16, 19}},
	constants.CardBrandDiners:     {prefixes: []string{"300", "301", "302", "303", "304", "305", "36", "38"}, lengths: []int{14, 16}},
}

// Validate 校验卡号、品牌、有效期与持卡人
func (v *CardValidator) Validate(card *models.CreditCard) error {
	if !v.Enabled {
		return nil
	}
	if card == nil {
		return integration.NewFieldsError(integration.ErrValidation, "credit card is required", []string{"creditCard"})
	}

	fields := make([]string, 0, 4)
	number := stripSeparators(card.CardNumber)
	if number == "" || !luhnValidate(number) {
		fields = append(fields, "cardNumber")
	}
	if card.Brand != "" && number != "" {
		if rule, ok := brandRules[card.Brand]; ok && !rule.matches(number) {
			fields = append(fields, "cardBrand")
		}
	}
	if strings.TrimSpace(card.CardHolder) == "" {
		fields = append(fields, "cardHolder")
	}
	if !v.expiryValid(card.ExpiryMonth, card.ExpiryYear) {
		fields = append(fields, "cardExpiry")
	}
	if len(fields) > 0 {
		return integration.NewFieldsError(integration.ErrValidation, "credit card validation failed", fields)
	}
	return nil
}

func (r brandRule) matches(number string) bool {
	lengthOK := false
	for _, length := range r.lengths {
		if len(number) == length {
			lengthOK = true
			break
		}
	}
	if !lengthOK {
		return false
	}
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(number, prefix) {
			return true
		}
	}
	return false
}

// expiryValid 月份 1-12，过期判定精确到月
func (v *CardValidator) expiryValid(monthText, yearText string) bool {
	month, err := strconv.Atoi(strings.TrimSpace(monthText))
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil || year < 1000 {
		return false
	}
	now := v.now()
	if year > now.Year() {
		return true
	}
	if year < now.Year() {
		return false
	}
	return month >= int(now.Month())
}

func stripSeparators(number string) string {
	var builder strings.Builder
	for _, ch := range number {
		switch {
		case ch >= '0' && ch <= '9':
			builder.WriteRune(ch)
		case ch == ' ' || ch == '-':
			continue
		default:
			return ""
		}
	}
	return builder.String()
}

// luhnValidate Luhn 校验，接受当且仅当加权和能被 10 整除
func luhnValidate(number string) bool {
	if len(number) < 12 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}
