package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"nearbuy-api/models"
	"nearbuy-api/services"
	"nearbuy-api/utils"
)

type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := uc.db.Preload("Local1").Preload("Local2").First(&user, userID).Error; err != nil {
		utils.SendAppError(c, services.ErrUserNotFound)
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, user)
}

type UpdateLocalsRequest struct {
	Local1ID *uint `json:"local1_id"`
	Local2ID *uint `json:"local2_id"`
}

// UpdateLocals sets the viewer's neighborhood scope. Either slot may be
// cleared by sending null.
func (uc *UserController) UpdateLocals(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req UpdateLocalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, id := range []*uint{req.Local1ID, req.Local2ID} {
		if id == nil {
			continue
		}
		var local models.Local
		if err := uc.db.First(&local, *id).Error; err != nil {
			utils.SendAppError(c, services.ErrLocalNotFound)
			return
		}
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		utils.SendAppError(c, services.ErrUserNotFound)
		return
	}

	updates := map[string]interface{}{
		"local1_id": req.Local1ID,
		"local2_id": req.Local2ID,
	}
	if err := uc.db.Model(&user).Updates(updates).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to update locals")
		return
	}

	utils.SendSuccess(c, "Locals updated successfully", nil)
}

func (uc *UserController) GetLocals(c *gin.Context) {
	var locals []models.Local
	if err := uc.db.Order("id").Find(&locals).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch locals")
		return
	}
	c.JSON(http.StatusOK, locals)
}
