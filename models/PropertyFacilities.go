package models

import "gorm.io/gorm"

// PropertyFacilities is the 1:1 amenities row for a listing. Utility bill
// policies are either covered by the owner or paid by the visitor, in which
// case an approximate monthly cost is stored.
type PropertyFacilities struct {
	gorm.Model
	PropertyID          uint     `json:"propertyID" gorm:"uniqueIndex"`
	Wifi                bool     `json:"wifi"`
	Kitchen             bool     `json:"kitchen"`
	WashingMachine      bool     `json:"washingMachine"`
	Gym                 bool     `json:"gym"`
	CCTV                bool     `json:"cctv"`
	Parking             bool     `json:"parking"`
	WaterBillPolicy     string   `json:"waterBillPolicy" gorm:"size:20"` // owner, visitor
	WaterBillCost       *float64 `json:"waterBillCost"`
	ElectricityPolicy   string   `json:"electricityBillPolicy" gorm:"column:electricity_bill_policy;size:20"`
	ElectricityBillCost *float64 `json:"electricityBillCost"`
}
