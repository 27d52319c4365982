package entity

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&RFQ{},
		&Shipment{},
		&ShipmentAmendment{},
		&ActivityLog{},
		&Notification{},
		&NotificationPreference{},
	}
}
