package format

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

// TemplateFuncs exposes the formatters to page templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"fileSize":     FileSize,
		"fileSizeMB":   FileSizeMB,
		"currency":     Currency,
		"currencyDec":  CurrencyDecimal,
		"price":        Price,
		"number":       Number,
		"date":         Date,
		"dateString":   DateString,
		"relative":     Relative,
		"truncate":     Truncate,
		"address":      Address,
		"tier":         QualityTier,
		"qualityColor": QualityColor,
		"percent":      Percent,
		"upper":        strings.ToUpper,
		"join":         strings.Join,
		"cell":         cell,
		"decimal":      func(d decimal.Decimal) string { return d.StringFixed(2) },
	}
}

// cell renders one preview value, "N/A" for null.
func cell(v any) string {
	if v == nil {
		return "N/A"
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "N/A"
	}
	return s
}
