package services

import (
	"nearbuy-api/utils"
)

var (
	ErrPostNotFound     = utils.NotFound("POST_NOT_FOUND", "post not found")
	ErrCategoryNotFound = utils.NotFound("CATEGORY_NOT_FOUND", "category not found")
	ErrUserNotFound     = utils.NotFound("USER_NOT_FOUND", "user not found")
	ErrLocalNotFound    = utils.NotFound("LOCAL_NOT_FOUND", "local not found")

	ErrPostCreate    = utils.Forbidden("POST_CREATE_FAIL", "post create failed")
	ErrPostUpdate    = utils.Forbidden("POST_UPDATE_FAIL", "post update failed")
	ErrTagFormat     = utils.Forbidden("TAG_UPDATE_FAIL", "tag string must start with '#'")
	ErrTooManyImages = utils.Forbidden("POST_IMAGE_LIMIT", "at most 3 images are allowed")

	ErrPhoneTaken = utils.Conflict("PHONE_DUPLICATION", "phone number already registered")

	ErrImageUpload = utils.Upstream("IMAGE_UPLOAD_FAIL", "image upload failed")
)
