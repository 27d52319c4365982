package entity

import (
	"strconv"
	"time"
)

// Shipment 运单
type Shipment struct {
	ID             string  `json:"id" gorm:"primaryKey;size:32"`
	TrackingNumber string  `json:"tracking_number" gorm:"size:20;uniqueIndex;not null"` // TF-26-04817
	RFQID          *string `json:"rfq_id" gorm:"column:rfq_id;size:32;uniqueIndex"`    // 直接创建的运单为空
	RFQReference   string  `json:"rfq_reference" gorm:"column:rfq_reference;size:20"`

	Mode        string `json:"mode" gorm:"size:20"`
	Origin      string `json:"origin" gorm:"size:200"`
	Destination string `json:"destination" gorm:"size:200"`
	CompanyName string `json:"company_name" gorm:"size:200"`
	ClientEmail string `json:"client_email" gorm:"size:200;index"`

	// 收发货人
	ShipperName        string `json:"shipper_name" gorm:"size:200"`
	ShipperAddress     string `json:"shipper_address" gorm:"type:text"`
	ShipperContact     string `json:"shipper_contact" gorm:"size:200"`
	ConsigneeName      string `json:"consignee_name" gorm:"size:200"`
	ConsigneeAddress   string `json:"consignee_address" gorm:"type:text"`
	ConsigneeContact   string `json:"consignee_contact" gorm:"size:200"`
	NotifyPartyName    string `json:"notify_party_name" gorm:"size:200"`
	NotifyPartyAddress string `json:"notify_party_address" gorm:"type:text"`
	NotifyPartyContact string `json:"notify_party_contact" gorm:"size:200"`

	// 运输单证
	BLNumber        string `json:"bl_number" gorm:"column:bl_number;size:50"`
	AWBNumber       string `json:"awb_number" gorm:"column:awb_number;size:50"`
	MBLNumber       string `json:"mbl_number" gorm:"column:mbl_number;size:50"`
	HBLNumber       string `json:"hbl_number" gorm:"column:hbl_number;size:50"`
	HBLACID         string `json:"hbl_acid" gorm:"column:hbl_acid;size:50"` // 客户可填写
	ContainerNumber string `json:"container_number" gorm:"size:50"`
	SealNumber      string `json:"seal_number" gorm:"size:50"`
	Incoterm        string `json:"incoterm" gorm:"size:10"`

	// 货物
	CargoDescription        string  `json:"cargo_description" gorm:"type:text"`
	WeightKG                float64 `json:"weight_kg" gorm:"column:weight_kg"`
	VolumeCBM               float64 `json:"volume_cbm" gorm:"column:volume_cbm"`
	IsHazardous             bool    `json:"is_hazardous"`
	IsTemperatureControlled bool    `json:"is_temperature_controlled"`

	ETD *time.Time `json:"etd" gorm:"column:etd"`
	ETA *time.Time `json:"eta" gorm:"column:eta"`
	ATD *time.Time `json:"atd" gorm:"column:atd"`
	ATA *time.Time `json:"ata" gorm:"column:ata"`

	DocumentURLs    Documents `json:"document_urls" gorm:"column:document_urls;type:jsonb"`
	OperationsNotes string    `json:"operations_notes" gorm:"type:text"`

	Status        string        `json:"status" gorm:"size:30;not null;index"`
	StatusHistory StatusHistory `json:"status_history" gorm:"type:jsonb"`

	CreatedBy string    `json:"created_by" gorm:"size:200"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Shipment) TableName() string {
	return "freight_shipments"
}

// 可修改字段的取值类型
const (
	FieldKindString = "string"
	FieldKindNumber = "number"
)

// AmendableField 允许通过修改申请变更的运单字段
type AmendableField struct {
	Column string
	Kind   string
}

// AmendableFields 修改申请字段白名单（json 字段名 -> 列）
var AmendableFields = map[string]AmendableField{
	"origin":               {Column: "origin", Kind: FieldKindString},
	"destination":          {Column: "destination", Kind: FieldKindString},
	"incoterm":             {Column: "incoterm", Kind: FieldKindString},
	"cargo_description":    {Column: "cargo_description", Kind: FieldKindString},
	"weight_kg":            {Column: "weight_kg", Kind: FieldKindNumber},
	"volume_cbm":           {Column: "volume_cbm", Kind: FieldKindNumber},
	"shipper_name":         {Column: "shipper_name", Kind: FieldKindString},
	"shipper_address":      {Column: "shipper_address", Kind: FieldKindString},
	"shipper_contact":      {Column: "shipper_contact", Kind: FieldKindString},
	"consignee_name":       {Column: "consignee_name", Kind: FieldKindString},
	"consignee_address":    {Column: "consignee_address", Kind: FieldKindString},
	"consignee_contact":    {Column: "consignee_contact", Kind: FieldKindString},
	"notify_party_name":    {Column: "notify_party_name", Kind: FieldKindString},
	"notify_party_address": {Column: "notify_party_address", Kind: FieldKindString},
	"notify_party_contact": {Column: "notify_party_contact", Kind: FieldKindString},
	"hbl_acid":             {Column: "hbl_acid", Kind: FieldKindString},
	"operations_notes":     {Column: "operations_notes", Kind: FieldKindString},
}

// FieldValue 读取可修改字段的当前值（字符串形式）
func (s *Shipment) FieldValue(field string) (string, bool) {
	switch field {
	case "origin":
		return s.Origin, true
	case "destination":
		return s.Destination, true
	case "incoterm":
		return s.Incoterm, true
	case "cargo_description":
		return s.CargoDescription, true
	case "weight_kg":
		return formatNumber(s.WeightKG), true
	case "volume_cbm":
		return formatNumber(s.VolumeCBM), true
	case "shipper_name":
		return s.ShipperName, true
	case "shipper_address":
		return s.ShipperAddress, true
	case "shipper_contact":
		return s.ShipperContact, true
	case "consignee_name":
		return s.ConsigneeName, true
	case "consignee_address":
		return s.ConsigneeAddress, true
	case "consignee_contact":
		return s.ConsigneeContact, true
	case "notify_party_name":
		return s.NotifyPartyName, true
	case "notify_party_address":
		return s.NotifyPartyAddress, true
	case "notify_party_contact":
		return s.NotifyPartyContact, true
	case "hbl_acid":
		return s.HBLACID, true
	case "operations_notes":
		return s.OperationsNotes, true
	}
	return "", false
}

// IsDelivered 是否已签收（终态）
func (s *Shipment) IsDelivered() bool {
	return s.Status == ShipmentStatusDelivered
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
