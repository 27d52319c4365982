package entity

// 角色
const (
	RoleClient     = "client"
	RoleSales      = "sales"
	RolePricing    = "pricing"
	RoleOperations = "operations"
	RoleAdmin      = "admin"
)

// ValidRoles 合法角色
var ValidRoles = []string{RoleClient, RoleSales, RolePricing, RoleOperations, RoleAdmin}

// 实体类型（活动日志、通知共用）
const (
	EntityTypeRFQ       = "rfq"
	EntityTypeShipment  = "shipment"
	EntityTypeAmendment = "amendment"
)

// RFQ 状态
const (
	RFQStatusSubmitted     = "submitted"
	RFQStatusSalesReview   = "sales_review"
	RFQStatusPricingReview = "pricing_review"
	RFQStatusQuoted        = "quoted"
	RFQStatusSentToClient  = "sent_to_client"
	RFQStatusAccepted      = "accepted"
	RFQStatusRejected      = "rejected"
	RFQStatusWon           = "won"
	RFQStatusLost          = "lost"
	RFQStatusCancelled     = "cancelled"
)

// RFQStatusFlow 正常流程的RFQ状态顺序（accepted/rejected 为客户决定的两个分支）
var RFQStatusFlow = []string{
	RFQStatusSubmitted,
	RFQStatusSalesReview,
	RFQStatusPricingReview,
	RFQStatusQuoted,
	RFQStatusSentToClient,
	RFQStatusAccepted,
	RFQStatusRejected,
}

// RFQOutOfBandStatuses 仅管理员可设置的状态
var RFQOutOfBandStatuses = []string{RFQStatusWon, RFQStatusLost, RFQStatusCancelled}

// RFQStatusLabels RFQ状态显示名
var RFQStatusLabels = map[string]string{
	RFQStatusSubmitted:     "Submitted",
	RFQStatusSalesReview:   "Under Sales Review",
	RFQStatusPricingReview: "Pricing in Progress",
	RFQStatusQuoted:        "Quotation Prepared",
	RFQStatusSentToClient:  "Quotation Ready",
	RFQStatusAccepted:      "Accepted",
	RFQStatusRejected:      "Rejected",
	RFQStatusWon:           "Won",
	RFQStatusLost:          "Lost",
	RFQStatusCancelled:     "Cancelled",
}

// rfqLegacyAliases 历史数据中的旧状态名 -> 规范状态名
var rfqLegacyAliases = map[string]string{
	"pricing_in_progress": RFQStatusPricingReview,
	"quotation_ready":     RFQStatusQuoted,
	"client_confirmed":    RFQStatusAccepted,
}

// NormalizeRFQStatus 将旧状态名映射为规范状态名，未知值原样返回
func NormalizeRFQStatus(status string) string {
	if canonical, ok := rfqLegacyAliases[status]; ok {
		return canonical
	}
	return status
}

// RFQStatusStoredValues 返回某规范状态在库中可能出现的全部取值（含旧名）
func RFQStatusStoredValues(status string) []string {
	values := []string{status}
	for legacy, canonical := range rfqLegacyAliases {
		if canonical == status {
			values = append(values, legacy)
		}
	}
	return values
}

// IsValidRFQStatus 是否为规范RFQ状态
func IsValidRFQStatus(status string) bool {
	_, ok := RFQStatusLabels[status]
	return ok
}

// Shipment 状态
const (
	ShipmentStatusBookingConfirmed   = "booking_confirmed"
	ShipmentStatusCargoReceived      = "cargo_received"
	ShipmentStatusExportClearance    = "export_clearance"
	ShipmentStatusDepartedOrigin     = "departed_origin"
	ShipmentStatusInTransit          = "in_transit"
	ShipmentStatusArrivedDestination = "arrived_destination"
	ShipmentStatusCustomsClearance   = "customs_clearance"
	ShipmentStatusOutForDelivery     = "out_for_delivery"
	ShipmentStatusDelivered          = "delivered"
)

// ShipmentStatusFlow 运单状态严格线性顺序
var ShipmentStatusFlow = []string{
	ShipmentStatusBookingConfirmed,
	ShipmentStatusCargoReceived,
	ShipmentStatusExportClearance,
	ShipmentStatusDepartedOrigin,
	ShipmentStatusInTransit,
	ShipmentStatusArrivedDestination,
	ShipmentStatusCustomsClearance,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
}

// ShipmentStatusLabels 运单状态显示名
var ShipmentStatusLabels = map[string]string{
	ShipmentStatusBookingConfirmed:   "Booking Confirmed",
	ShipmentStatusCargoReceived:      "Cargo Received",
	ShipmentStatusExportClearance:    "Export Clearance",
	ShipmentStatusDepartedOrigin:     "Departed Origin",
	ShipmentStatusInTransit:          "In Transit",
	ShipmentStatusArrivedDestination: "Arrived at Destination",
	ShipmentStatusCustomsClearance:   "Customs Clearance",
	ShipmentStatusOutForDelivery:     "Out for Delivery",
	ShipmentStatusDelivered:          "Delivered",
}

// ShipmentStatusIndex 返回状态在线性顺序中的位置，未知状态返回 -1
func ShipmentStatusIndex(status string) int {
	for i, s := range ShipmentStatusFlow {
		if s == status {
			return i
		}
	}
	return -1
}

// Amendment 状态
const (
	AmendmentStatusPending  = "pending"
	AmendmentStatusApproved = "approved"
	AmendmentStatusRejected = "rejected"
)

// AmendmentStatusLabels 修改申请状态显示名
var AmendmentStatusLabels = map[string]string{
	AmendmentStatusPending:  "Pending Review",
	AmendmentStatusApproved: "Approved",
	AmendmentStatusRejected: "Rejected",
}

// StatusLabel 按实体类型查状态显示名，查不到时返回原值
func StatusLabel(entityType, status string) string {
	var labels map[string]string
	switch entityType {
	case EntityTypeRFQ:
		labels = RFQStatusLabels
	case EntityTypeShipment:
		labels = ShipmentStatusLabels
	case EntityTypeAmendment:
		labels = AmendmentStatusLabels
	}
	if label, ok := labels[status]; ok {
		return label
	}
	return status
}
