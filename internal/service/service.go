// Package service implements the permission-aware CRUD and reporting operations.
// Every write runs in a single gorm transaction.
package service

import (
	"errors"
	"strings"
	"time"

	"requirement-service/internal/apperror"
	"requirement-service/internal/model"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ListParams is the offset pagination shared by every list operation
type ListParams struct {
	Skip  int
	Limit int
}

// Normalize applies the default limit and clamps both values
func (p ListParams) Normalize() ListParams {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Page is one page of a list result
type Page[T any] struct {
	Items []T
	Total int64
	Skip  int
	Limit int
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// checkEnum rejects v when it is outside e
func checkEnum(e model.Enum, v string) error {
	if !e.Contains(v) {
		return apperror.Validation("invalid %s %q, must be one of: %s", e.Name, v, e.Allowed())
	}
	return nil
}

// checkOptionalEnum accepts the empty string as "no filter / not set"
func checkOptionalEnum(e model.Enum, v string) error {
	if v == "" {
		return nil
	}
	return checkEnum(e, v)
}

func likePattern(s string) string {
	return "%" + s + "%"
}

// searchScope ORs a LIKE over columns
func searchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		clauses := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			clauses[i] = c + " LIKE ?"
			args[i] = likePattern(term)
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

func paginate(p ListParams) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Skip).Limit(p.Limit)
	}
}

// notFound converts gorm.ErrRecordNotFound to a NotFound error naming the entity
func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s %s not found", entity, id)
	}
	return internal(err, "failed to load "+entity)
}

// internal wraps unexpected store failures; typed errors pass through
func internal(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("record already exists")
	}
	return apperror.Internal(err, message)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
