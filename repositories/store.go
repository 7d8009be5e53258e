package repositories

import (
	"errors"

	"gorm.io/gorm"
	"nearbuy-api/models"
)

// PostStore is the mutation-side surface the post service works against.
// WithTx hands the callback a store bound to one transaction; every write in
// a create/update/delete runs inside a single such transaction.
type PostStore interface {
	WithTx(fn func(PostStore) error) error

	FindPost(id uint) (*models.Post, error)
	CreatePost(post *models.Post) error
	SavePost(post *models.Post) error
	DeletePost(id uint) error

	FindCategory(id uint) (*models.Category, error)
	ListCategories() ([]models.Category, error)

	FindTagByName(name string) (*models.Tag, error)
	CreateTag(tag *models.Tag) error
	TagsByPost(postID uint) ([]models.Tag, error)
	DeletePostTags(postID uint) error
	CreatePostTag(postTag *models.PostTag) error

	CreateChatRoom(room *models.ChatRoom) error
	CreateChatJoin(join *models.ChatJoin) error
	ChatRoomExists(postID uint) (bool, error)
	ChatPromiseExists(postID uint) (bool, error)
	DeleteChatPromise(postID uint) error
	DeleteChatJoins(postID uint) error
	DeleteChatRoom(postID uint) error
}

// Store implements PostStore on gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(fn func(PostStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) FindPost(id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) CreatePost(post *models.Post) error {
	return s.db.Create(post).Error
}

func (s *Store) SavePost(post *models.Post) error {
	return s.db.Save(post).Error
}

func (s *Store) DeletePost(id uint) error {
	return s.db.Delete(&models.Post{}, id).Error
}

func (s *Store) FindCategory(id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) FindTagByName(name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Store) CreateTag(tag *models.Tag) error {
	return s.db.Create(tag).Error
}

func (s *Store) TagsByPost(postID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.Model(&models.Tag{}).
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", postID).
		Order("post_tags.id").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Store) DeletePostTags(postID uint) error {
	return s.db.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error
}

func (s *Store) CreatePostTag(postTag *models.PostTag) error {
	return s.db.Create(postTag).Error
}

func (s *Store) CreateChatRoom(room *models.ChatRoom) error {
	return s.db.Create(room).Error
}

func (s *Store) CreateChatJoin(join *models.ChatJoin) error {
	return s.db.Create(join).Error
}

func (s *Store) ChatRoomExists(postID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ChatRoom{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

func (s *Store) ChatPromiseExists(postID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ChatPromise{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

func (s *Store) DeleteChatPromise(postID uint) error {
	return s.db.Where("post_id = ?", postID).Delete(&models.ChatPromise{}).Error
}

func (s *Store) DeleteChatJoins(postID uint) error {
	return s.db.Where("post_id = ?", postID).Delete(&models.ChatJoin{}).Error
}

func (s *Store) DeleteChatRoom(postID uint) error {
	return s.db.Where("post_id = ?", postID).Delete(&models.ChatRoom{}).Error
}
