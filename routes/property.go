package routes

import (
	"fmt"
	"log"
	"strconv"

	"bodima-server/models"
	"bodima-server/storage"
	"bodima-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

func CreateProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreatePropertyInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if len(input.Images) < 2 {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "At least 2 gallery images are required.", ctx)
		return
	}

	property := models.Property{
		OwnerID:             claims.ID,
		Type:                input.Type,
		NumberOfSingleRooms: input.NumberOfSingleRooms,
		NumberOfSharedRooms: input.NumberOfSharedRooms,
		TotalCapacity:       input.TotalCapacity,
		CostType:            input.CostType,
		Cost:                input.Cost,
		Description:         input.Description,
		Latitude:            input.Latitude,
		Longitude:           input.Longitude,
		District:            input.District,
		Facilities: models.PropertyFacilities{
			Wifi:                input.Facilities.Wifi,
			Kitchen:             input.Facilities.Kitchen,
			WashingMachine:      input.Facilities.WashingMachine,
			Gym:                 input.Facilities.Gym,
			CCTV:                input.Facilities.CCTV,
			Parking:             input.Facilities.Parking,
			WaterBillPolicy:     input.Facilities.WaterBillPolicy,
			WaterBillCost:       input.Facilities.WaterBillCost,
			ElectricityPolicy:   input.Facilities.ElectricityPolicy,
			ElectricityBillCost: input.Facilities.ElectricityBillCost,
		},
	}

	if createErr := storage.DB.Create(&property).Error; createErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	dir := fmt.Sprintf("properties/%d", property.ID)
	reqCtx := ctx.Request().Context()

	if input.CoverImage != "" {
		url, uploadErr := storage.UploadBase64Image(reqCtx, input.CoverImage, dir)
		if uploadErr != nil {
			log.Printf("cover image upload failed for property %d: %v", property.ID, uploadErr)
		} else {
			property.CoverImageURL = url
			storage.DB.Model(&property).Update("cover_image_url", url)
		}
	}

	// Gallery uploads skip individual failures rather than failing the listing.
	var images []models.PropertyImage
	for i, base64Image := range input.Images {
		url, uploadErr := storage.UploadBase64Image(reqCtx, base64Image, dir)
		if uploadErr != nil {
			log.Printf("gallery image %d upload failed for property %d: %v", i, property.ID, uploadErr)
			continue
		}
		images = append(images, models.PropertyImage{
			PropertyID: property.ID,
			ImageURL:   url,
			SortOrder:  i,
		})
	}
	if len(images) > 0 {
		if imagesErr := storage.DB.Create(&images).Error; imagesErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		property.Images = images
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(property)
}

func GetProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var property models.Property
	propertyExists := storage.DB.
		Preload("Facilities").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Owner").
		Where("id = ?", id).
		Find(&property)

	if propertyExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if propertyExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
		return
	}

	ctx.JSON(property)
}

// GetProperties lists recent listings, optionally filtered by type.
func GetProperties(ctx iris.Context) {
	propertyType := ctx.URLParam("type")

	query := storage.DB.Preload("Facilities").Preload("Images").
		Order("created_at DESC").Limit(50)
	if propertyType != "" {
		query = query.Where("type = ?", propertyType)
	}

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(properties)
}

func GetPropertiesByUserID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var properties []models.Property
	propertiesExist := storage.DB.Preload("Facilities").Preload("Images").
		Where("owner_id = ?", id).Order("created_at DESC").Find(&properties)

	if propertiesExist.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(properties)
}

func GetPropertiesByBoundingBox(ctx iris.Context) {
	var boundingBox BoundingBoxInput
	var err error

	boundingBox.LatLow, err = strconv.ParseFloat(ctx.URLParam("latLow"), 64)
	if err == nil {
		boundingBox.LatHigh, err = strconv.ParseFloat(ctx.URLParam("latHigh"), 64)
	}
	if err == nil {
		boundingBox.LonLow, err = strconv.ParseFloat(ctx.URLParam("lonLow"), 64)
	}
	if err == nil {
		boundingBox.LonHigh, err = strconv.ParseFloat(ctx.URLParam("lonHigh"), 64)
	}
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid bounding box coordinates.", ctx)
		return
	}

	var properties []models.Property
	propertiesExist := storage.DB.Preload("Facilities").Preload("Images").
		Where("latitude >= ? AND latitude <= ? AND longitude >= ? AND longitude <= ?",
			boundingBox.LatLow, boundingBox.LatHigh, boundingBox.LonLow, boundingBox.LonHigh).
		Find(&properties)

	if propertiesExist.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(properties)
}

func DeleteProperty(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var property models.Property
	propertyExists := storage.DB.Where("id = ?", id).Find(&property)
	if propertyExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if propertyExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found", ctx)
		return
	}

	if property.OwnerID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	storage.DB.Where("property_id = ?", property.ID).Delete(&models.PropertyImage{})
	storage.DB.Where("property_id = ?", property.ID).Delete(&models.PropertyFacilities{})
	if deleteErr := storage.DB.Delete(&property).Error; deleteErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

type PropertyFacilitiesInput struct {
	Wifi                bool     `json:"wifi"`
	Kitchen             bool     `json:"kitchen"`
	WashingMachine      bool     `json:"washingMachine"`
	Gym                 bool     `json:"gym"`
	CCTV                bool     `json:"cctv"`
	Parking             bool     `json:"parking"`
	WaterBillPolicy     string   `json:"waterBillPolicy" validate:"omitempty,oneof=owner visitor"`
	WaterBillCost       *float64 `json:"waterBillCost"`
	ElectricityPolicy   string   `json:"electricityBillPolicy" validate:"omitempty,oneof=owner visitor"`
	ElectricityBillCost *float64 `json:"electricityBillCost"`
}

type CreatePropertyInput struct {
	Type                string                  `json:"type" validate:"required,oneof=single_room multiple_rooms hostel"`
	NumberOfSingleRooms int                     `json:"numberOfSingleRooms" validate:"gte=0"`
	NumberOfSharedRooms int                     `json:"numberOfSharedRooms" validate:"gte=0"`
	TotalCapacity       int                     `json:"totalCapacity" validate:"required,gte=1"`
	CostType            string                  `json:"costType" validate:"required,oneof=per_person full_property"`
	Cost                float64                 `json:"cost" validate:"required,gt=0"`
	Description         string                  `json:"description" validate:"max=4000"`
	Latitude            float64                 `json:"latitude" validate:"required"`
	Longitude           float64                 `json:"longitude" validate:"required"`
	District            string                  `json:"district" validate:"required,max=128"`
	CoverImage          string                  `json:"coverImage"`
	Images              []string                `json:"images" validate:"required"`
	Facilities          PropertyFacilitiesInput `json:"facilities"`
}

type BoundingBoxInput struct {
	LatLow  float64
	LatHigh float64
	LonLow  float64
	LonHigh float64
}
