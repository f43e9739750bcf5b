package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DynamicFieldDefinition describes an extensible attribute for requirements or projects
type DynamicFieldDefinition struct {
	ID               string                      `json:"id" gorm:"type:varchar(36);primaryKey"`
	FieldName        string                      `json:"field_name" gorm:"type:varchar(100);not null;uniqueIndex:idx_field_scope"`
	FieldType        string                      `json:"field_type" gorm:"type:varchar(20);not null"`
	FieldLabel       string                      `json:"field_label" gorm:"type:varchar(200);not null"`
	FieldDescription string                      `json:"field_description" gorm:"type:text"`
	Options          datatypes.JSONSlice[string] `json:"options"`
	IsRequired       bool                        `json:"is_required" gorm:"not null"`
	IsActive         bool                        `json:"is_active" gorm:"not null"`
	AppliesTo        string                      `json:"applies_to" gorm:"type:varchar(20);not null;uniqueIndex:idx_field_scope"`
	OrderIndex       string                      `json:"order_index" gorm:"type:varchar(10)"`
	ValidationRules  datatypes.JSONMap           `json:"validation_rules"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

func (d *DynamicFieldDefinition) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Options == nil {
		d.Options = datatypes.JSONSlice[string]{}
	}
	return nil
}

// DefaultDynamicFields is the starter set created by initialize-defaults
func DefaultDynamicFields() []DynamicFieldDefinition {
	return []DynamicFieldDefinition{
		{
			FieldName:        "data_source",
			FieldType:        FieldTypeText,
			FieldLabel:       "Data Source",
			FieldDescription: "Origin of the data used by the requirement",
			AppliesTo:        AppliesToRequirement,
			OrderIndex:       "1",
		},
		{
			FieldName:        "kpis_involved",
			FieldType:        FieldTypeSelect,
			FieldLabel:       "KPIs Involved",
			FieldDescription: "Key performance indicators the requirement affects",
			Options:          datatypes.JSONSlice[string]{"Sales", "Profitability", "Cost", "ROI", "Productivity"},
			AppliesTo:        AppliesToRequirement,
			OrderIndex:       "2",
		},
		{
			FieldName:        "estimated_delivery_date",
			FieldType:        FieldTypeDate,
			FieldLabel:       "Estimated Delivery Date",
			FieldDescription: "Date the requirement is expected to be delivered",
			AppliesTo:        AppliesToRequirement,
			OrderIndex:       "3",
		},
		{
			FieldName:        "complexity_level",
			FieldType:        FieldTypeSelect,
			FieldLabel:       "Complexity",
			FieldDescription: "Implementation complexity",
			Options:          datatypes.JSONSlice[string]{"Low", "Medium", "High"},
			AppliesTo:        AppliesToRequirement,
			OrderIndex:       "4",
		},
		{
			FieldName:        "notes",
			FieldType:        FieldTypeTextarea,
			FieldLabel:       "Notes",
			FieldDescription: "Additional notes",
			AppliesTo:        AppliesToRequirement,
			OrderIndex:       "5",
		},
	}
}
