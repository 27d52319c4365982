package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// scanJSON 兼容 postgres(jsonb -> []byte) 与 sqlite(text -> string)
func scanJSON(value interface{}, dest interface{}, typeName string) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("failed to scan %s: %v", typeName, value)
	}
}

// JSONB JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return scanJSON(value, j, "JSONB")
}

// StatusHistoryEntry 运单状态历史条目
type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	UpdatedBy string    `json:"updated_by"`
}

// StatusHistory 只追加的状态历史，最后一条必须与当前状态一致
type StatusHistory []StatusHistoryEntry

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal([]StatusHistoryEntry{})
	}
	return json.Marshal(h)
}

func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	return scanJSON(value, h, "StatusHistory")
}

// Last 返回最后一条历史，空历史返回 nil
func (h StatusHistory) Last() *StatusHistoryEntry {
	if len(h) == 0 {
		return nil
	}
	return &h[len(h)-1]
}

// Append 返回追加新条目后的副本，不修改原切片
func (h StatusHistory) Append(entry StatusHistoryEntry) StatusHistory {
	out := make(StatusHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, entry)
}

// DocumentRef 上传文件引用
type DocumentRef struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type,omitempty"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Documents 文件引用列表
type Documents []DocumentRef

func (d Documents) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal([]DocumentRef{})
	}
	return json.Marshal(d)
}

func (d *Documents) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	return scanJSON(value, d, "Documents")
}

// ChangeRequest 修改申请的结构化变更
type ChangeRequest struct {
	Field          string `json:"field"`
	CurrentValue   string `json:"current_value"`
	RequestedValue string `json:"requested_value"`
}

func (c ChangeRequest) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ChangeRequest) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	return scanJSON(value, c, "ChangeRequest")
}
