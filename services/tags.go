package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"nearbuy-api/models"
	"nearbuy-api/repositories"
)

// parsePostTags splits a raw "#a#b#c" string into tag names. The string must
// start with '#'. Empty tokens (trailing or doubled delimiters) are dropped
// and repeated names are deduplicated, keeping first-seen order.
func parsePostTags(raw string) ([]string, error) {
	if raw == "" || !strings.HasPrefix(raw, "#") {
		return nil, ErrTagFormat
	}

	seen := make(map[string]struct{})
	var names []string
	for _, token := range strings.Split(raw[1:], "#") {
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		names = append(names, token)
	}
	return names, nil
}

// syncTags replaces the post's tag associations with the set named in raw.
// Runs inside the caller's transaction. Missing tags are created on demand;
// a duplicate-key conflict from a concurrent creator is resolved by
// re-fetching the winner's row.
func syncTags(store repositories.PostStore, postID uint, raw string) error {
	names, err := parsePostTags(raw)
	if err != nil {
		return err
	}

	if err := store.DeletePostTags(postID); err != nil {
		return err
	}

	for _, name := range names {
		tag, err := ensureTag(store, name)
		if err != nil {
			return err
		}
		postTag := &models.PostTag{PostID: postID, TagID: tag.ID}
		if err := store.CreatePostTag(postTag); err != nil {
			return err
		}
	}
	return nil
}

// ensureTag finds or creates the canonical tag row for a name. Losing the
// insert race to another transaction is expected control flow, not an error.
func ensureTag(store repositories.PostStore, name string) (*models.Tag, error) {
	tag, err := store.FindTagByName(name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	tag = &models.Tag{Name: name}
	err = store.CreateTag(tag)
	if err == nil {
		return tag, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := store.FindTagByName(name)
		if findErr != nil {
			return nil, findErr
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, err
}
