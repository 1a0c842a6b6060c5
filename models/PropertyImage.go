package models

import "gorm.io/gorm"

type PropertyImage struct {
	gorm.Model
	PropertyID uint   `json:"propertyID" gorm:"index"`
	ImageURL   string `json:"imageURL" gorm:"size:512"`
	SortOrder  int    `json:"sortOrder"`
}
