package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"nearbuy-api/models"
	"nearbuy-api/repositories"
	"nearbuy-api/services"
	"nearbuy-api/utils"
)

type PostController struct {
	db    *gorm.DB
	posts *services.PostService
}

func NewPostController(db *gorm.DB, posts *services.PostService) *PostController {
	return &PostController{db: db, posts: posts}
}

func (pc *PostController) viewer(c *gin.Context) (*models.User, bool) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := pc.db.First(&user, userID).Error; err != nil {
		utils.SendAppError(c, services.ErrUserNotFound)
		return nil, false
	}
	return &user, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return page, limit
}

func sortParam(c *gin.Context) repositories.SortMode {
	if strings.EqualFold(c.DefaultQuery("sort", "recent"), "deadline") {
		return repositories.SortDeadline
	}
	return repositories.SortRecent
}

// GetPosts lists posts for the viewer's neighborhood scope.
// Query params: sort=recent|deadline, category_id, page, limit.
func (pc *PostController) GetPosts(c *gin.Context) {
	viewer, ok := pc.viewer(c)
	if !ok {
		return
	}

	var categoryID *uint
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, "invalid category_id")
			return
		}
		v := uint(id)
		categoryID = &v
	}

	page, limit := pageParams(c)
	paged, err := pc.posts.List(viewer, sortParam(c), categoryID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged)
}

// SearchPosts matches posts by keyword; a leading '#' searches tags.
func (pc *PostController) SearchPosts(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		utils.SendError(c, http.StatusBadRequest, "keyword is required")
		return
	}

	viewer, ok := pc.viewer(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	paged, err := pc.posts.Search(viewer, keyword, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged)
}

func (pc *PostController) GetPost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	detail, err := pc.posts.Get(uint(id))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// postRequest binds the multipart form shared by create and update.
func postRequest(c *gin.Context) (*services.PostRequest, error) {
	categoryID, err := strconv.ParseUint(c.PostForm("category_id"), 10, 32)
	if err != nil {
		return nil, err
	}
	cost, err := strconv.Atoi(c.DefaultPostForm("cost", "0"))
	if err != nil {
		return nil, err
	}
	people, err := strconv.Atoi(c.DefaultPostForm("people", "0"))
	if err != nil {
		return nil, err
	}

	req := &services.PostRequest{
		Title:      c.PostForm("title"),
		CategoryID: uint(categoryID),
		Cost:       cost,
		People:     people,
		Local:      c.PostForm("local"),
		Bio:        c.PostForm("bio"),
		PostTag:    c.PostForm("post_tag"),
	}

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		req.Images = form.File["images"]
	}
	return req, nil
}

func (pc *PostController) CreatePost(c *gin.Context) {
	viewer, ok := pc.viewer(c)
	if !ok {
		return
	}

	req, err := postRequest(c)
	if err != nil {
		utils.SendAppError(c, services.ErrPostCreate)
		return
	}

	id, err := pc.posts.Create(c.Request.Context(), viewer, req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendCreated(c, "Post created successfully", gin.H{"id": id})
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	viewer, ok := pc.viewer(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	if !pc.ownedBy(c, uint(id), viewer.ID) {
		return
	}

	req, reqErr := postRequest(c)
	if reqErr != nil {
		utils.SendAppError(c, services.ErrPostUpdate)
		return
	}

	if err := pc.posts.Update(c.Request.Context(), uint(id), req); err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, "Post updated successfully", nil)
}

func (pc *PostController) DeletePost(c *gin.Context) {
	viewer, ok := pc.viewer(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	if !pc.ownedBy(c, uint(id), viewer.ID) {
		return
	}

	if err := pc.posts.Delete(uint(id)); err != nil {
		utils.SendAppError(c, err)
		return
	}
	utils.SendSuccess(c, "Post deleted successfully", nil)
}

// GetMyPosts is the viewer's sales history.
func (pc *PostController) GetMyPosts(c *gin.Context) {
	userID := c.GetUint("user_id")
	page, limit := pageParams(c)

	paged, err := pc.posts.ListByUser(userID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged)
}

// GetJoinedPosts is the viewer's purchase history: posts whose chat room the
// viewer joined.
func (pc *PostController) GetJoinedPosts(c *gin.Context) {
	userID := c.GetUint("user_id")
	page, limit := pageParams(c)

	paged, err := pc.posts.ListJoined(userID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged)
}

// GetUserPosts lists another user's published posts.
func (pc *PostController) GetUserPosts(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var user models.User
	if err := pc.db.First(&user, uint(id)).Error; err != nil {
		utils.SendAppError(c, services.ErrUserNotFound)
		return
	}

	page, limit := pageParams(c)
	paged, err := pc.posts.ListByUser(user.ID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged)
}

func (pc *PostController) ownedBy(c *gin.Context, postID, userID uint) bool {
	var post models.Post
	if err := pc.db.First(&post, postID).Error; err != nil {
		utils.SendAppError(c, services.ErrPostNotFound)
		return false
	}
	if post.UserID != userID {
		utils.SendError(c, http.StatusForbidden, "Post not found or access denied")
		return false
	}
	return true
}
