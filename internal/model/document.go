// Package model defines the data structures persisted by the service.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Document statuses. A document is Pending from ingestion start until the
// pipeline either indexes it or gives up.
const (
	StatusPending = "Pending"
	StatusIndexed = "Indexed"
	StatusFailed  = "Failed"
)

// Risk levels assigned by the risk scanner.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// StringList stores a JSON-encoded list of strings in a text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// Document is the metadata record for one ingested file. DocID doubles as
// the object storage key.
type Document struct {
	DocID       string     `gorm:"type:varchar(255);primaryKey;column:doc_id" json:"docId"`
	CaseID      string     `gorm:"type:varchar(64);index;column:case_id" json:"caseId"`
	UploadedAt  time.Time  `gorm:"column:uploaded_at" json:"uploadedAt"`
	Status      string     `gorm:"type:varchar(16);not null;column:status" json:"status"`
	RiskScore   string     `gorm:"type:varchar(16);column:risk_score" json:"riskScore"`
	RiskFlags   StringList `gorm:"type:text;column:risk_flags" json:"riskFlags"`
	TextPreview string     `gorm:"type:varchar(512);column:text_preview" json:"textPreview"`
}

// TableName maps the model to its table.
func (Document) TableName() string {
	return "documents"
}

// DocumentDTO is the shape returned by the document listing endpoint.
type DocumentDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Date      string   `json:"date"`
	Status    string   `json:"status"`
	RiskScore string   `json:"risk_score"`
	RiskFlags []string `json:"risk_flags"`
}

// RiskResult is the outcome of a risk scan. The scanner never fails: any
// error yields the zero-risk default instead.
type RiskResult struct {
	Score string   `json:"score"`
	Flags []string `json:"flags"`
}

// DefaultRiskResult is returned whenever the risk scan cannot produce a
// usable classification.
func DefaultRiskResult() RiskResult {
	return RiskResult{Score: RiskLow, Flags: []string{}}
}
