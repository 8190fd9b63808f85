package models

import "time"

// Room represents a bookable room (operating theater, procedure room)
type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	RoomType  string    `gorm:"size:50;default:'operating_theater'" json:"room_type"`
	Location  string    `gorm:"size:100" json:"location,omitempty"`
	Capacity  int       `gorm:"default:0" json:"capacity"`
	Equipment string    `gorm:"type:text" json:"equipment,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Room model
func (Room) TableName() string {
	return "rooms"
}

// RoomWithSchedule includes the room's next upcoming procedures for detail views
type RoomWithSchedule struct {
	Room
	UpcomingProcedures []Procedure `json:"upcoming_procedures"`
}
