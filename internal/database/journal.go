package walletstatedb

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SavePendingRegistration journals a registration that must be replayed.
func SavePendingRegistration(reg *PendingRegistration) error {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	return DB.Create(reg).Error
}

// GetPendingRegistrations returns all journaled registrations, oldest first.
func GetPendingRegistrations() ([]PendingRegistration, error) {
	var regs []PendingRegistration
	result := DB.Order("created_at asc").Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}
	return regs, nil
}

// GetPendingRegistrationForNote returns the journaled registration for a
// note, or nil when none exists.
func GetPendingRegistrationForNote(noteID string) (*PendingRegistration, error) {
	var reg PendingRegistration
	result := DB.Where("note_id = ?", noteID).First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &reg, nil
}

// RemovePendingRegistration drops a journal row once its registration has
// been accepted by the bookkeeping server.
func RemovePendingRegistration(id uint) error {
	return DB.Delete(&PendingRegistration{}, id).Error
}
