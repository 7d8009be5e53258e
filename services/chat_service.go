package services

import (
	"nearbuy-api/models"
	"nearbuy-api/repositories"
)

// ChatRoomCreator is the chat subsystem hook invoked once per post creation,
// inside the creating transaction.
type ChatRoomCreator interface {
	CreateChatRoom(store repositories.PostStore, post *models.Post) error
}

// ChatService owns the chat aggregates this backend touches: room creation
// on post create. Messaging itself lives elsewhere.
type ChatService struct{}

func NewChatService() *ChatService {
	return &ChatService{}
}

// CreateChatRoom opens the post's room and joins the owner to it.
func (s *ChatService) CreateChatRoom(store repositories.PostStore, post *models.Post) error {
	room := &models.ChatRoom{
		PostID: post.ID,
		Name:   post.Title,
	}
	if err := store.CreateChatRoom(room); err != nil {
		return err
	}

	join := &models.ChatJoin{
		PostID: post.ID,
		UserID: post.UserID,
	}
	return store.CreateChatJoin(join)
}
