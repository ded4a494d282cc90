package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
)

// SoftDelete is embedded by records that are archived instead of removed.
// Customers only ever see active records, staff see everything for audit.
type SoftDelete struct {
	Lifecycle Lifecycle `gorm:"type:varchar(16);not null;default:'active';index" json:"-"`
}

func (s SoftDelete) IsActive() bool {
	return s.Lifecycle == LifecycleActive
}

func (s SoftDelete) VisibleToCustomer() bool {
	return s.IsActive()
}

func (s SoftDelete) VisibleToStaff() bool {
	return true
}

func (s *SoftDelete) Archive() {
	s.Lifecycle = LifecycleInactive
}

func (s *SoftDelete) BeforeCreate(tx *gorm.DB) error {
	if s.Lifecycle == "" {
		s.Lifecycle = LifecycleActive
	}
	return nil
}

// Visibility selects which lifecycle states a read may return.
type Visibility int

const (
	CustomerView Visibility = iota
	StaffView
)

// Scope returns the gorm scope matching v.
func (v Visibility) Scope() func(*gorm.DB) *gorm.DB {
	if v == StaffView {
		return StaffVisible
	}
	return CustomerVisible
}

// CustomerVisible restricts a query on the current table to active records.
func CustomerVisible(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "lifecycle"},
		Value:  LifecycleActive,
	})
}

func StaffVisible(db *gorm.DB) *gorm.DB {
	return db
}
