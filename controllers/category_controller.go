package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"nearbuy-api/repositories"
	"nearbuy-api/utils"
)

type CategoryController struct {
	store repositories.PostStore
}

func NewCategoryController(store repositories.PostStore) *CategoryController {
	return &CategoryController{store: store}
}

func (cc *CategoryController) GetCategories(c *gin.Context) {
	categories, err := cc.store.ListCategories()
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}
