package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project represents a unit of work that owns requirements
type Project struct {
	ID            string                            `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name          string                            `json:"name" gorm:"type:varchar(200);index;not null"`
	Description   string                            `json:"description" gorm:"type:text"`
	Status        string                            `json:"status" gorm:"type:varchar(20);index;not null"`
	Priority      string                            `json:"priority" gorm:"type:varchar(20);index;not null"`
	StartDate     *time.Time                        `json:"start_date"`
	EndDate       *time.Time                        `json:"end_date"`
	Budget        string                            `json:"budget" gorm:"type:varchar(100)"`
	ClientName    string                            `json:"client_name" gorm:"type:varchar(200);index"`
	IsActive      bool                              `json:"is_active" gorm:"not null"`
	LogoURL       string                            `json:"logo_url" gorm:"type:varchar(500)"`
	DynamicFields datatypes.JSONType[DynamicFields] `json:"dynamic_fields"`
	CreatedBy     string                            `json:"created_by" gorm:"type:varchar(36);index;not null"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`

	// Relations
	Creator *User `json:"-" gorm:"foreignKey:CreatedBy"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ProjectProgress is completed/total*100, 0 for a project without requirements
func ProjectProgress(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
