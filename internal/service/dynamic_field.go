package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"
	"requirement-service/pkg/optional"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DynamicFieldInput is the payload for creating a definition
type DynamicFieldInput struct {
	FieldName        string         `json:"field_name"`
	FieldType        string         `json:"field_type"`
	FieldLabel       string         `json:"field_label"`
	FieldDescription string         `json:"field_description"`
	Options          []string       `json:"options"`
	IsRequired       bool           `json:"is_required"`
	IsActive         *bool          `json:"is_active"`
	AppliesTo        string         `json:"applies_to"`
	OrderIndex       string         `json:"order_index"`
	ValidationRules  map[string]any `json:"validation_rules"`
}

// DynamicFieldUpdate is the partial payload for updating a definition
type DynamicFieldUpdate struct {
	FieldName        optional.Field[string]         `json:"field_name"`
	FieldType        optional.Field[string]         `json:"field_type"`
	FieldLabel       optional.Field[string]         `json:"field_label"`
	FieldDescription optional.Field[string]         `json:"field_description"`
	Options          optional.Field[[]string]       `json:"options"`
	IsRequired       optional.Field[bool]           `json:"is_required"`
	IsActive         optional.Field[bool]           `json:"is_active"`
	AppliesTo        optional.Field[string]         `json:"applies_to"`
	OrderIndex       optional.Field[string]         `json:"order_index"`
	ValidationRules  optional.Field[map[string]any] `json:"validation_rules"`
}

// DynamicFieldFilter narrows List
type DynamicFieldFilter struct {
	AppliesTo string
	IsActive  *bool
}

// DynamicFieldService manages dynamic field definitions and validates values against them
type DynamicFieldService struct {
	db *gorm.DB
}

func NewDynamicFieldService(db *gorm.DB) *DynamicFieldService {
	return &DynamicFieldService{db: db}
}

// List returns definitions ordered by field name
func (s *DynamicFieldService) List(ctx context.Context, filter DynamicFieldFilter) ([]*DynamicFieldResponse, error) {
	if err := checkOptionalEnum(model.AppliesToScopes, filter.AppliesTo); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&model.DynamicFieldDefinition{})
	if filter.AppliesTo != "" {
		query = query.Where("applies_to = ?", filter.AppliesTo)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var defs []model.DynamicFieldDefinition
	if err := query.Order("field_name asc").Find(&defs).Error; err != nil {
		return nil, internal(err, "failed to list dynamic fields")
	}

	out := make([]*DynamicFieldResponse, len(defs))
	for i := range defs {
		out[i] = newDynamicFieldResponse(&defs[i])
	}
	return out, nil
}

func (s *DynamicFieldService) Get(ctx context.Context, id string) (*DynamicFieldResponse, error) {
	def, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return newDynamicFieldResponse(def), nil
}

func (s *DynamicFieldService) load(tx *gorm.DB, id string) (*model.DynamicFieldDefinition, error) {
	var def model.DynamicFieldDefinition
	if err := tx.Where("id = ?", id).First(&def).Error; err != nil {
		return nil, notFound(err, "dynamic field", id)
	}
	return &def, nil
}

// Create adds a definition; (field_name, applies_to) must be unused
func (s *DynamicFieldService) Create(ctx context.Context, in DynamicFieldInput) (*DynamicFieldResponse, error) {
	def := &model.DynamicFieldDefinition{
		FieldName:        trimmed(in.FieldName),
		FieldType:        in.FieldType,
		FieldLabel:       trimmed(in.FieldLabel),
		FieldDescription: in.FieldDescription,
		Options:          datatypes.JSONSlice[string](in.Options),
		IsRequired:       in.IsRequired,
		IsActive:         true,
		AppliesTo:        in.AppliesTo,
		OrderIndex:       in.OrderIndex,
		ValidationRules:  datatypes.JSONMap(in.ValidationRules),
	}
	if in.IsActive != nil {
		def.IsActive = *in.IsActive
	}
	if def.AppliesTo == "" {
		def.AppliesTo = model.AppliesToRequirement
	}
	if def.OrderIndex == "" {
		def.OrderIndex = "0"
	}
	if err := validateDefinition(def); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureFieldNameFree(tx, def.FieldName, def.AppliesTo, ""); err != nil {
			return err
		}
		return tx.Create(def).Error
	})
	if err != nil {
		return nil, internal(err, "failed to create dynamic field")
	}
	return newDynamicFieldResponse(def), nil
}

// Update applies the supplied fields; uniqueness is re-checked when the name or scope changes
func (s *DynamicFieldService) Update(ctx context.Context, id string, in DynamicFieldUpdate) (*DynamicFieldResponse, error) {
	var def *model.DynamicFieldDefinition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if def, err = s.load(tx, id); err != nil {
			return err
		}
		oldName, oldScope := def.FieldName, def.AppliesTo

		if v, ok := in.FieldName.Get(); ok {
			def.FieldName = trimmed(v)
		} else if in.FieldName.Set {
			return apperror.Validation("field_name cannot be null")
		}
		if v, ok := in.FieldType.Get(); ok {
			def.FieldType = v
		} else if in.FieldType.Set {
			return apperror.Validation("field_type cannot be null")
		}
		if v, ok := in.FieldLabel.Get(); ok {
			def.FieldLabel = trimmed(v)
		} else if in.FieldLabel.Set {
			return apperror.Validation("field_label cannot be null")
		}
		if in.FieldDescription.Set {
			def.FieldDescription = in.FieldDescription.Value
		}
		if in.Options.Set {
			def.Options = datatypes.JSONSlice[string](in.Options.Value)
		}
		if in.IsRequired.Set {
			def.IsRequired = in.IsRequired.Value
		}
		if in.IsActive.Set {
			def.IsActive = in.IsActive.Value
		}
		if v, ok := in.AppliesTo.Get(); ok {
			def.AppliesTo = v
		} else if in.AppliesTo.Set {
			return apperror.Validation("applies_to cannot be null")
		}
		if in.OrderIndex.Set {
			def.OrderIndex = in.OrderIndex.Value
		}
		if in.ValidationRules.Set {
			def.ValidationRules = datatypes.JSONMap(in.ValidationRules.Value)
		}

		if err := validateDefinition(def); err != nil {
			return err
		}
		if def.FieldName != oldName || def.AppliesTo != oldScope {
			if err := ensureFieldNameFree(tx, def.FieldName, def.AppliesTo, def.ID); err != nil {
				return err
			}
		}
		return tx.Save(def).Error
	})
	if err != nil {
		return nil, internal(err, "failed to update dynamic field")
	}
	return newDynamicFieldResponse(def), nil
}

func (s *DynamicFieldService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		def, err := s.load(tx, id)
		if err != nil {
			return err
		}
		return tx.Delete(def).Error
	})
	return internal(err, "failed to delete dynamic field")
}

func (s *DynamicFieldService) Activate(ctx context.Context, id string) (*DynamicFieldResponse, error) {
	return s.setActive(ctx, id, true)
}

func (s *DynamicFieldService) Deactivate(ctx context.Context, id string) (*DynamicFieldResponse, error) {
	return s.setActive(ctx, id, false)
}

func (s *DynamicFieldService) setActive(ctx context.Context, id string, active bool) (*DynamicFieldResponse, error) {
	var def *model.DynamicFieldDefinition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if def, err = s.load(tx, id); err != nil {
			return err
		}
		def.IsActive = active
		return tx.Model(def).Update("is_active", active).Error
	})
	if err != nil {
		return nil, internal(err, "failed to change dynamic field state")
	}
	return newDynamicFieldResponse(def), nil
}

// InitializeDefaults seeds the starter set. It fails with Conflict when any
// definition already exists and then creates nothing.
func (s *DynamicFieldService) InitializeDefaults(ctx context.Context) ([]*DynamicFieldResponse, error) {
	defs := model.DefaultDynamicFields()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.DynamicFieldDefinition{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("dynamic fields already initialized")
		}
		for i := range defs {
			defs[i].IsActive = true
			if err := tx.Create(&defs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to initialize dynamic fields")
	}

	out := make([]*DynamicFieldResponse, len(defs))
	for i := range defs {
		out[i] = newDynamicFieldResponse(&defs[i])
	}
	return out, nil
}

// ValidateValues checks values against the active definitions of appliesTo and
// returns the normalized map.
func (s *DynamicFieldService) ValidateValues(ctx context.Context, appliesTo string, values model.DynamicFields) (model.DynamicFields, error) {
	return validateDynamicValues(s.db.WithContext(ctx), appliesTo, values)
}

func ensureFieldNameFree(tx *gorm.DB, name, scope, exceptID string) error {
	query := tx.Model(&model.DynamicFieldDefinition{}).Where("field_name = ? AND applies_to = ?", name, scope)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict("dynamic field %q already exists for %s", name, scope)
	}
	return nil
}

var ruleKeys = []string{"min_length", "max_length", "pattern", "min", "max"}

func validateDefinition(def *model.DynamicFieldDefinition) error {
	if def.FieldName == "" || len(def.FieldName) > 100 {
		return apperror.Validation("field_name must be between 1 and 100 characters")
	}
	if def.FieldLabel == "" || len(def.FieldLabel) > 200 {
		return apperror.Validation("field_label must be between 1 and 200 characters")
	}
	if err := checkEnum(model.FieldTypes, def.FieldType); err != nil {
		return err
	}
	if err := checkEnum(model.AppliesToScopes, def.AppliesTo); err != nil {
		return err
	}
	if def.FieldType == model.FieldTypeSelect && len(def.Options) == 0 {
		return apperror.Validation("select fields require at least one option")
	}
	for _, key := range ruleKeys {
		v, ok := def.ValidationRules[key]
		if !ok {
			continue
		}
		if key == "pattern" {
			p, isString := v.(string)
			if !isString {
				return apperror.Validation("validation rule pattern must be a string")
			}
			if _, err := regexp.Compile(p); err != nil {
				return apperror.Validation("validation rule pattern is not a valid expression: %v", err)
			}
			continue
		}
		if _, isNum := ruleNumber(v); !isNum {
			return apperror.Validation("validation rule %s must be a number", key)
		}
	}
	return nil
}

func ruleNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func validateDynamicValues(tx *gorm.DB, appliesTo string, values model.DynamicFields) (model.DynamicFields, error) {
	var defs []model.DynamicFieldDefinition
	if err := tx.Where("applies_to = ? AND is_active = ?", appliesTo, true).Find(&defs).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]*model.DynamicFieldDefinition, len(defs))
	for i := range defs {
		byName[defs[i].FieldName] = &defs[i]
	}

	out := make(model.DynamicFields, len(values))
	var problems []string

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := values[key]
		def, ok := byName[key]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown dynamic field", key))
			continue
		}
		if v.IsNull() {
			continue
		}
		normalized, err := checkDynamicValue(def, v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		out[key] = normalized
	}

	for i := range defs {
		if !defs[i].IsRequired {
			continue
		}
		if v, ok := values[defs[i].FieldName]; !ok || v.IsNull() {
			problems = append(problems, fmt.Sprintf("%s: field is required", defs[i].FieldName))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, apperror.Validation("invalid dynamic fields: %s", strings.Join(problems, "; "))
	}
	return out, nil
}

func checkDynamicValue(def *model.DynamicFieldDefinition, v model.DynamicValue) (model.DynamicValue, error) {
	rules := def.ValidationRules

	switch def.FieldType {
	case model.FieldTypeText, model.FieldTypeTextarea:
		s, ok := v.AsString()
		if !ok {
			return v, fmt.Errorf("expected a string, got %s", v.Kind())
		}
		if err := checkStringRules(s, rules); err != nil {
			return v, err
		}
		return v, nil

	case model.FieldTypeNumber:
		n, ok := v.AsNumber()
		if !ok {
			return v, fmt.Errorf("expected a number, got %s", v.Kind())
		}
		if lo, ok := ruleNumber(rules["min"]); ok && n < lo {
			return v, fmt.Errorf("must be at least %v", lo)
		}
		if hi, ok := ruleNumber(rules["max"]); ok && n > hi {
			return v, fmt.Errorf("must be at most %v", hi)
		}
		return v, nil

	case model.FieldTypeBoolean:
		if _, ok := v.AsBool(); !ok {
			return v, fmt.Errorf("expected a boolean, got %s", v.Kind())
		}
		return v, nil

	case model.FieldTypeDate:
		if _, ok := v.AsDate(); ok {
			return v, nil
		}
		s, ok := v.AsString()
		if !ok {
			return v, fmt.Errorf("expected a date, got %s", v.Kind())
		}
		t, err := parseDate(s)
		if err != nil {
			return v, fmt.Errorf("expected a date in YYYY-MM-DD format")
		}
		return model.DateValue(t), nil

	case model.FieldTypeSelect:
		s, ok := v.AsString()
		if !ok {
			return v, fmt.Errorf("expected one of the options, got %s", v.Kind())
		}
		if !slices.Contains(def.Options, s) {
			return v, fmt.Errorf("%q is not one of: %s", s, strings.Join(def.Options, ", "))
		}
		return v, nil
	}
	return v, fmt.Errorf("unsupported field type %s", def.FieldType)
}

func checkStringRules(s string, rules map[string]any) error {
	length := float64(utf8.RuneCountInString(s))
	if lo, ok := ruleNumber(rules["min_length"]); ok && length < lo {
		return fmt.Errorf("must be at least %v characters", lo)
	}
	if hi, ok := ruleNumber(rules["max_length"]); ok && length > hi {
		return fmt.Errorf("must be at most %v characters", hi)
	}
	if p, ok := rules["pattern"].(string); ok && p != "" {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid pattern rule")
		}
		if !re.MatchString(s) {
			return fmt.Errorf("does not match pattern %s", p)
		}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
