package models

import (
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	OwnerID             uint    `json:"ownerID" gorm:"index"`
	Type                string  `json:"type" gorm:"size:32;index"` // single_room, multiple_rooms, hostel
	NumberOfSingleRooms int     `json:"numberOfSingleRooms"`
	NumberOfSharedRooms int     `json:"numberOfSharedRooms"`
	TotalCapacity       int     `json:"totalCapacity"`
	CostType            string  `json:"costType" gorm:"size:20"` // per_person, full_property
	Cost                float64 `json:"cost"`
	Description         string  `json:"description" gorm:"type:text"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	District            string  `json:"district" gorm:"size:128;index"`
	CoverImageURL       string  `json:"coverImageURL" gorm:"size:512"`

	Facilities PropertyFacilities `json:"facilities"`
	Images     []PropertyImage    `json:"images"`
	Owner      User               `json:"owner" gorm:"foreignKey:OwnerID;references:ID"`
}
