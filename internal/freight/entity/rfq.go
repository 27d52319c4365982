package entity

import (
	"time"

	"gorm.io/gorm"
)

// 运输方式
const (
	ModeSea    = "sea"
	ModeAir    = "air"
	ModeInland = "inland"
)

// IsValidMode 是否为合法运输方式
func IsValidMode(mode string) bool {
	return mode == ModeSea || mode == ModeAir || mode == ModeInland
}

// RFQ 询价单
type RFQ struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	Reference string `json:"reference" gorm:"size:20;uniqueIndex;not null"` // RFQ-2026-04217

	// 客户信息
	CompanyName  string `json:"company_name" gorm:"size:200"`
	ContactName  string `json:"contact_name" gorm:"size:100"`
	ClientEmail  string `json:"client_email" gorm:"size:200;index"`
	ContactPhone string `json:"contact_phone" gorm:"size:50"`

	// 货物信息
	Mode                    string  `json:"mode" gorm:"size:20;not null"` // sea/air/inland
	CargoType               string  `json:"cargo_type" gorm:"size:50"`    // fcl/lcl/general/...
	Origin                  string  `json:"origin" gorm:"size:200"`
	Destination             string  `json:"destination" gorm:"size:200"`
	WeightKG                float64 `json:"weight_kg" gorm:"column:weight_kg"`
	VolumeCBM               float64 `json:"volume_cbm" gorm:"column:volume_cbm"`
	PackageCount            int     `json:"package_count"`
	CommodityDescription    string  `json:"commodity_description" gorm:"type:text"`
	IsHazardous             bool    `json:"is_hazardous"`
	IsTemperatureControlled bool    `json:"is_temperature_controlled"`
	Incoterm                string  `json:"incoterm" gorm:"size:10"`

	DocumentURLs Documents `json:"document_urls" gorm:"column:document_urls;type:jsonb"`

	// 报价
	QuotationAmount   float64 `json:"quotation_amount"`
	QuotationCurrency string  `json:"quotation_currency" gorm:"size:10"`
	QuotationNotes    string  `json:"quotation_notes" gorm:"type:text"`
	QuotationURL      string  `json:"quotation_url" gorm:"column:quotation_url;size:500"`

	SalesNotes   string `json:"sales_notes" gorm:"type:text"`
	PricingNotes string `json:"pricing_notes" gorm:"type:text"`

	Status    string     `json:"status" gorm:"size:30;not null;index"`
	CreatedBy string     `json:"created_by" gorm:"size:200"`
	QuotedAt  *time.Time `json:"quoted_at"`
	SentAt    *time.Time `json:"sent_at"`
	DecidedAt *time.Time `json:"decided_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (RFQ) TableName() string {
	return "freight_rfqs"
}

// AfterFind 读取时把旧状态名映射为规范状态
func (r *RFQ) AfterFind(tx *gorm.DB) error {
	r.Status = NormalizeRFQStatus(r.Status)
	return nil
}

// HasQuotation 是否已有报价（金额或报价文件）
func (r *RFQ) HasQuotation() bool {
	return r.QuotationAmount > 0 || r.QuotationURL != ""
}
