package models

import "gorm.io/gorm"

// AutoMigrate migrates every table owned or projected by this service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Patient{},
		&Admission{},
		&Room{},
		&Procedure{},
		&AuditLog{},
	)
}
