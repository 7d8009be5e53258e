package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"nearbuy-api/models"
)

type SortMode string

const (
	SortRecent   SortMode = "RECENT"
	SortDeadline SortMode = "DEADLINE"
)

// PostFilter enumerates every listing variant: zero, one or two viewer
// locals, an optional category restriction, and the sort mode. One builder
// covers the whole cross-product.
type PostFilter struct {
	LocalIDs   []uint
	CategoryID *uint
	Sort       SortMode
}

// gatheredJoin supplies the participant count per post from the chat
// membership rows. Posts without a room or joins count as zero.
const gatheredJoin = "LEFT JOIN (SELECT post_id, COUNT(*) AS gathered FROM chat_joins GROUP BY post_id) gc ON gc.post_id = posts.id"

const gatheredSelect = "posts.*, COALESCE(gc.gathered, 0) AS gathered"

// localeScope builds the owner-overlap predicate: the post is visible when
// the poster's local1 or local2 matches any of the viewer's locals. An empty
// id list means unscoped.
func localeScope(localIDs []uint) (string, []interface{}) {
	if len(localIDs) == 0 {
		return "", nil
	}
	return "(users.local1_id IN (?) OR users.local2_id IN (?))",
		[]interface{}{localIDs, localIDs}
}

// orderClause maps the sort mode to its ORDER BY expression. The deadline
// ratio is computed in floating point, with the post id as a stable
// tie-break for equal progress.
func orderClause(sort SortMode) string {
	if sort == SortDeadline {
		return "(COALESCE(gc.gathered, 0) / (posts.people * 1.0)) DESC, posts.id DESC"
	}
	return "posts.created_at DESC, posts.id DESC"
}

// searchScope builds the keyword predicate. A leading '#' switches to a tag
// substring search through post_tags; otherwise the keyword matches the post
// title or the category name.
func searchScope(keyword string) (clause string, args []interface{}, byTag bool) {
	if strings.HasPrefix(keyword, "#") {
		pattern := "%" + strings.TrimPrefix(keyword, "#") + "%"
		return "tags.name LIKE ?", []interface{}{pattern}, true
	}
	pattern := "%" + keyword + "%"
	return "(posts.title LIKE ? OR categories.name LIKE ?)",
		[]interface{}{pattern, pattern}, false
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) scoped(filter PostFilter) *gorm.DB {
	q := r.db.Model(&models.Post{}).
		Select(gatheredSelect).
		Joins(gatheredJoin)

	if clause, args := localeScope(filter.LocalIDs); clause != "" {
		q = q.Joins("JOIN users ON users.id = posts.user_id").
			Where(clause, args...)
	}
	if filter.CategoryID != nil {
		q = q.Where("posts.category_id = ?", *filter.CategoryID)
	}
	return q
}

// List returns one page of posts for the filter plus the total matching the
// same predicate. The count intentionally shares the filter with the result
// query so reported page totals agree with what is listed.
func (r *PostRepository) List(filter PostFilter, page, limit int) ([]models.Post, int64, error) {
	page, limit = normalizePage(page, limit)

	var total int64
	if err := r.scoped(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := r.scoped(filter).
		Order(orderClause(filter.Sort)).
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Category").
		Preload("User").
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Search matches posts by keyword, locale-scoped the same way as List, most
// recent first.
func (r *PostRepository) Search(keyword string, localIDs []uint, page, limit int) ([]models.Post, int64, error) {
	page, limit = normalizePage(page, limit)

	build := func() *gorm.DB {
		q := r.db.Model(&models.Post{}).
			Select(gatheredSelect).
			Joins(gatheredJoin)

		clause, args, byTag := searchScope(keyword)
		if byTag {
			q = q.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
				Joins("JOIN tags ON tags.id = post_tags.tag_id")
		} else {
			q = q.Joins("JOIN categories ON categories.id = posts.category_id")
		}
		q = q.Where(clause, args...)

		if scope, scopeArgs := localeScope(localIDs); scope != "" {
			q = q.Joins("JOIN users ON users.id = posts.user_id").
				Where(scope, scopeArgs...)
		}
		return q
	}

	var total int64
	if err := build().Distinct("posts.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := build().
		Group("posts.id").
		Order("posts.created_at DESC, posts.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Category").
		Preload("User").
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindByID loads one post with its gathered count and associations, or nil
// when absent.
func (r *PostRepository) FindByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.Model(&models.Post{}).
		Select(gatheredSelect).
		Joins(gatheredJoin).
		Preload("Category").
		Preload("User").
		First(&post, "posts.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByUser is the user's sales history: posts the user published.
func (r *PostRepository) ListByUser(userID uint, page, limit int) ([]models.Post, int64, error) {
	page, limit = normalizePage(page, limit)

	base := func() *gorm.DB {
		return r.db.Model(&models.Post{}).
			Select(gatheredSelect).
			Joins(gatheredJoin).
			Where("posts.user_id = ?", userID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := base().
		Order("posts.created_at DESC, posts.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Category").
		Preload("User").
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListJoinedByUser is the user's purchase history: posts whose chat room the
// user has joined.
func (r *PostRepository) ListJoinedByUser(userID uint, page, limit int) ([]models.Post, int64, error) {
	page, limit = normalizePage(page, limit)

	base := func() *gorm.DB {
		return r.db.Model(&models.Post{}).
			Select(gatheredSelect).
			Joins(gatheredJoin).
			Joins("JOIN chat_joins ON chat_joins.post_id = posts.id").
			Where("chat_joins.user_id = ?", userID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := base().
		Order("posts.created_at DESC, posts.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Category").
		Preload("User").
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
