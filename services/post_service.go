package services

import (
	"context"
	"mime/multipart"

	"nearbuy-api/models"
	"nearbuy-api/repositories"
)

const imageSlots = 3

// PostRequest is the mutation payload for a post. Images are optional; on
// update an empty slice means "leave the stored images unchanged". PostTag
// is the raw "#a#b#c" string.
type PostRequest struct {
	Title      string
	CategoryID uint
	Cost       int
	People     int
	Local      string
	Bio        string
	PostTag    string
	Images     []*multipart.FileHeader
}

// PostQueries is the read-side query planner surface.
type PostQueries interface {
	List(filter repositories.PostFilter, page, limit int) ([]models.Post, int64, error)
	Search(keyword string, localIDs []uint, page, limit int) ([]models.Post, int64, error)
	FindByID(id uint) (*models.Post, error)
	ListByUser(userID uint, page, limit int) ([]models.Post, int64, error)
	ListJoinedByUser(userID uint, page, limit int) ([]models.Post, int64, error)
}

// PostService orchestrates the post lifecycle: create/update/delete with tag
// synchronization and chat cascade, plus the viewer-facing read paths.
type PostService struct {
	store           repositories.PostStore
	queries         PostQueries
	uploader        ImageUploader
	chat            ChatRoomCreator
	defaultImageURL string
}

func NewPostService(store repositories.PostStore, queries PostQueries, uploader ImageUploader, chat ChatRoomCreator, defaultImageURL string) *PostService {
	return &PostService{
		store:           store,
		queries:         queries,
		uploader:        uploader,
		chat:            chat,
		defaultImageURL: defaultImageURL,
	}
}

// normalizeImageSlots pads uploaded URLs to exactly imageSlots entries with
// the placeholder. Callers reject oversized input before uploading.
func normalizeImageSlots(urls []string, placeholder string) [imageSlots]string {
	var slots [imageSlots]string
	for i := 0; i < imageSlots; i++ {
		if i < len(urls) {
			slots[i] = urls[i]
		} else {
			slots[i] = placeholder
		}
	}
	return slots
}

func validatePostRequest(req *PostRequest, invalid error) error {
	if req == nil || req.Title == "" || req.People <= 0 || req.Cost < 0 {
		return invalid
	}
	if len(req.Images) > imageSlots {
		return ErrTooManyImages
	}
	return nil
}

func (s *PostService) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.uploader.Upload(ctx, file, "posts")
		if err != nil {
			return nil, ErrImageUpload
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Create validates the request, uploads images, then persists the post, its
// tag set and its chat room in one transaction. Returns the new post id.
func (s *PostService) Create(ctx context.Context, owner *models.User, req *PostRequest) (uint, error) {
	if err := validatePostRequest(req, ErrPostCreate); err != nil {
		return 0, err
	}
	if _, err := parsePostTags(req.PostTag); err != nil {
		return 0, err
	}

	category, err := s.store.FindCategory(req.CategoryID)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, ErrCategoryNotFound
	}

	urls, err := s.uploadImages(ctx, req.Images)
	if err != nil {
		return 0, err
	}
	slots := normalizeImageSlots(urls, s.defaultImageURL)

	post := &models.Post{
		Title:      req.Title,
		Cost:       req.Cost,
		People:     req.People,
		Local:      req.Local,
		Bio:        req.Bio,
		ImageURL1:  slots[0],
		ImageURL2:  slots[1],
		ImageURL3:  slots[2],
		CategoryID: category.ID,
		UserID:     owner.ID,
	}

	err = s.store.WithTx(func(tx repositories.PostStore) error {
		if err := tx.CreatePost(post); err != nil {
			return err
		}
		if err := syncTags(tx, post.ID, req.PostTag); err != nil {
			return err
		}
		return s.chat.CreateChatRoom(tx, post)
	})
	if err != nil {
		return 0, err
	}
	return post.ID, nil
}

// Update rewrites the post's fields and fully replaces its tag set. Image
// slots are only touched when the request carries new images.
func (s *PostService) Update(ctx context.Context, id uint, req *PostRequest) error {
	if err := validatePostRequest(req, ErrPostUpdate); err != nil {
		return err
	}
	if _, err := parsePostTags(req.PostTag); err != nil {
		return err
	}

	post, err := s.store.FindPost(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	category, err := s.store.FindCategory(req.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	if len(req.Images) > 0 {
		urls, err := s.uploadImages(ctx, req.Images)
		if err != nil {
			return err
		}
		slots := normalizeImageSlots(urls, s.defaultImageURL)
		post.ImageURL1 = slots[0]
		post.ImageURL2 = slots[1]
		post.ImageURL3 = slots[2]
	}

	post.Title = req.Title
	post.Cost = req.Cost
	post.People = req.People
	post.Local = req.Local
	post.Bio = req.Bio
	post.CategoryID = category.ID

	return s.store.WithTx(func(tx repositories.PostStore) error {
		if err := tx.SavePost(post); err != nil {
			return err
		}
		return syncTags(tx, post.ID, req.PostTag)
	})
}

// Delete removes the post and everything hanging off it, dependents first:
// tag links, the chat promise if one exists, then joins and room if the room
// exists, then the post row.
func (s *PostService) Delete(id uint) error {
	post, err := s.store.FindPost(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	return s.store.WithTx(func(tx repositories.PostStore) error {
		if err := tx.DeletePostTags(id); err != nil {
			return err
		}

		hasPromise, err := tx.ChatPromiseExists(id)
		if err != nil {
			return err
		}
		if hasPromise {
			if err := tx.DeleteChatPromise(id); err != nil {
				return err
			}
		}

		hasRoom, err := tx.ChatRoomExists(id)
		if err != nil {
			return err
		}
		if hasRoom {
			if err := tx.DeleteChatJoins(id); err != nil {
				return err
			}
			if err := tx.DeleteChatRoom(id); err != nil {
				return err
			}
		}

		return tx.DeletePost(id)
	})
}

// List returns one page of summaries for the viewer's locale scope, sort
// mode and optional category. Category existence is checked before any
// listing query runs.
func (s *PostService) List(viewer *models.User, sort repositories.SortMode, categoryID *uint, page, limit int) (*models.PagedPosts, error) {
	if categoryID != nil {
		category, err := s.store.FindCategory(*categoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
	}

	filter := repositories.PostFilter{
		LocalIDs:   viewer.LocalIDs(),
		CategoryID: categoryID,
		Sort:       sort,
	}
	posts, total, err := s.queries.List(filter, page, limit)
	if err != nil {
		return nil, err
	}

	paged := models.PagedPostsFrom(posts, page, limit, total)
	return &paged, nil
}

// Search matches posts by keyword under the viewer's locale scope.
func (s *PostService) Search(viewer *models.User, keyword string, page, limit int) (*models.PagedPosts, error) {
	posts, total, err := s.queries.Search(keyword, viewer.LocalIDs(), page, limit)
	if err != nil {
		return nil, err
	}

	paged := models.PagedPostsFrom(posts, page, limit, total)
	return &paged, nil
}

// Get loads one post with its tags for the detail view.
func (s *PostService) Get(id uint) (*models.PostDetail, error) {
	post, err := s.queries.FindByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	tags, err := s.store.TagsByPost(id)
	if err != nil {
		return nil, err
	}

	detail := models.PostDetailFrom(*post, tags)
	return &detail, nil
}

// ListByUser is the user's published posts (sales history).
func (s *PostService) ListByUser(userID uint, page, limit int) (*models.PagedPosts, error) {
	posts, total, err := s.queries.ListByUser(userID, page, limit)
	if err != nil {
		return nil, err
	}

	paged := models.PagedPostsFrom(posts, page, limit, total)
	return &paged, nil
}

// ListJoined is the user's joined posts (purchase history).
func (s *PostService) ListJoined(userID uint, page, limit int) (*models.PagedPosts, error) {
	posts, total, err := s.queries.ListJoinedByUser(userID, page, limit)
	if err != nil {
		return nil, err
	}

	paged := models.PagedPostsFrom(posts, page, limit, total)
	return &paged, nil
}
