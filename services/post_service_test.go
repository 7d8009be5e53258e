package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"reflect"
	"sort"
	"testing"

	"gorm.io/gorm"
	"nearbuy-api/models"
	"nearbuy-api/repositories"
)

const testPlaceholder = "http://objects.test/static/default_post.png"

// fakeStore is an in-memory PostStore recording the order of its write
// operations.
type fakeStore struct {
	posts      map[uint]*models.Post
	nextPostID uint
	categories map[uint]*models.Category
	tags       map[string]*models.Tag
	nextTagID  uint
	postTags   []models.PostTag
	nextLinkID uint
	rooms      map[uint]*models.ChatRoom
	joins      []models.ChatJoin
	promises   map[uint]*models.ChatPromise

	ops []string

	tagConflict bool
	txErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:      make(map[uint]*models.Post),
		categories: make(map[uint]*models.Category),
		tags:       make(map[string]*models.Tag),
		rooms:      make(map[uint]*models.ChatRoom),
		promises:   make(map[uint]*models.ChatPromise),
	}
}

func (f *fakeStore) record(op string) {
	f.ops = append(f.ops, op)
}

func (f *fakeStore) WithTx(fn func(repositories.PostStore) error) error {
	if f.txErr != nil {
		return f.txErr
	}
	return fn(f)
}

func (f *fakeStore) FindPost(id uint) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (f *fakeStore) CreatePost(post *models.Post) error {
	f.record("CreatePost")
	f.nextPostID++
	post.ID = f.nextPostID
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeStore) SavePost(post *models.Post) error {
	f.record("SavePost")
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakeStore) DeletePost(id uint) error {
	f.record("DeletePost")
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) FindCategory(id uint) (*models.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	return category, nil
}

func (f *fakeStore) ListCategories() ([]models.Category, error) {
	var out []models.Category
	for _, category := range f.categories {
		out = append(out, *category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) FindTagByName(name string) (*models.Tag, error) {
	tag, ok := f.tags[name]
	if !ok {
		return nil, nil
	}
	return tag, nil
}

func (f *fakeStore) CreateTag(tag *models.Tag) error {
	f.record("CreateTag")
	if f.tagConflict {
		// Simulate losing the insert race: another transaction committed
		// this name between our lookup and insert.
		f.tagConflict = false
		f.nextTagID++
		f.tags[tag.Name] = &models.Tag{ID: f.nextTagID, Name: tag.Name}
		return gorm.ErrDuplicatedKey
	}
	if _, exists := f.tags[tag.Name]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.nextTagID++
	tag.ID = f.nextTagID
	copied := *tag
	f.tags[tag.Name] = &copied
	return nil
}

func (f *fakeStore) TagsByPost(postID uint) ([]models.Tag, error) {
	var out []models.Tag
	for _, link := range f.postTags {
		if link.PostID != postID {
			continue
		}
		for _, tag := range f.tags {
			if tag.ID == link.TagID {
				out = append(out, *tag)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) DeletePostTags(postID uint) error {
	f.record("DeletePostTags")
	kept := f.postTags[:0]
	for _, link := range f.postTags {
		if link.PostID != postID {
			kept = append(kept, link)
		}
	}
	f.postTags = kept
	return nil
}

func (f *fakeStore) CreatePostTag(postTag *models.PostTag) error {
	f.record("CreatePostTag")
	f.nextLinkID++
	postTag.ID = f.nextLinkID
	f.postTags = append(f.postTags, *postTag)
	return nil
}

func (f *fakeStore) CreateChatRoom(room *models.ChatRoom) error {
	f.record("CreateChatRoom")
	copied := *room
	f.rooms[room.PostID] = &copied
	return nil
}

func (f *fakeStore) CreateChatJoin(join *models.ChatJoin) error {
	f.record("CreateChatJoin")
	f.joins = append(f.joins, *join)
	return nil
}

func (f *fakeStore) ChatRoomExists(postID uint) (bool, error) {
	f.record("ChatRoomExists")
	_, ok := f.rooms[postID]
	return ok, nil
}

func (f *fakeStore) ChatPromiseExists(postID uint) (bool, error) {
	f.record("ChatPromiseExists")
	_, ok := f.promises[postID]
	return ok, nil
}

func (f *fakeStore) DeleteChatPromise(postID uint) error {
	f.record("DeleteChatPromise")
	delete(f.promises, postID)
	return nil
}

func (f *fakeStore) DeleteChatJoins(postID uint) error {
	f.record("DeleteChatJoins")
	kept := f.joins[:0]
	for _, join := range f.joins {
		if join.PostID != postID {
			kept = append(kept, join)
		}
	}
	f.joins = kept
	return nil
}

func (f *fakeStore) DeleteChatRoom(postID uint) error {
	f.record("DeleteChatRoom")
	delete(f.rooms, postID)
	return nil
}

// Seeding helpers shared by the service tests.

func (f *fakeStore) seedCategory(id uint, name string) {
	f.categories[id] = &models.Category{ID: id, Name: name}
}

func (f *fakeStore) seedPost(categoryID, userID uint) *models.Post {
	f.nextPostID++
	post := &models.Post{
		ID:         f.nextPostID,
		Title:      "bulk rice",
		Cost:       20000,
		People:     4,
		Local:      "by the station",
		Bio:        "split a 20kg bag",
		ImageURL1:  testPlaceholder,
		ImageURL2:  testPlaceholder,
		ImageURL3:  testPlaceholder,
		CategoryID: categoryID,
		UserID:     userID,
	}
	f.posts[post.ID] = post
	return post
}

func (f *fakeStore) seedPostTags(postID uint, names ...string) {
	for _, name := range names {
		tag, ok := f.tags[name]
		if !ok {
			f.nextTagID++
			tag = &models.Tag{ID: f.nextTagID, Name: name}
			f.tags[name] = tag
		}
		f.nextLinkID++
		f.postTags = append(f.postTags, models.PostTag{ID: f.nextLinkID, PostID: postID, TagID: tag.ID})
	}
}

func (f *fakeStore) tagNamesFor(postID uint) []string {
	tags, _ := f.TagsByPost(postID)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeStore) postTagRowCount(postID uint) int {
	n := 0
	for _, link := range f.postTags {
		if link.PostID == postID {
			n++
		}
	}
	return n
}

// fakeQueries records the filter it was called with.
type fakeQueries struct {
	lastFilter  *repositories.PostFilter
	lastKeyword string
	lastLocals  []uint
	posts       []models.Post
	total       int64
	findPost    *models.Post
}

func (f *fakeQueries) List(filter repositories.PostFilter, page, limit int) ([]models.Post, int64, error) {
	f.lastFilter = &filter
	return f.posts, f.total, nil
}

func (f *fakeQueries) Search(keyword string, localIDs []uint, page, limit int) ([]models.Post, int64, error) {
	f.lastKeyword = keyword
	f.lastLocals = localIDs
	return f.posts, f.total, nil
}

func (f *fakeQueries) FindByID(id uint) (*models.Post, error) {
	return f.findPost, nil
}

func (f *fakeQueries) ListByUser(userID uint, page, limit int) ([]models.Post, int64, error) {
	return f.posts, f.total, nil
}

func (f *fakeQueries) ListJoinedByUser(userID uint, page, limit int) ([]models.Post, int64, error) {
	return f.posts, f.total, nil
}

type fakeUploader struct {
	calls int
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, _ *multipart.FileHeader, namespace string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("http://objects.test/%s/%d.png", namespace, f.calls), nil
}

func newTestService(store *fakeStore, queries *fakeQueries, uploader *fakeUploader) *PostService {
	return NewPostService(store, queries, uploader, NewChatService(), testPlaceholder)
}

func validRequest(images int) *PostRequest {
	req := &PostRequest{
		Title:      "bulk rice",
		CategoryID: 1,
		Cost:       20000,
		People:     4,
		Local:      "by the station",
		Bio:        "split a 20kg bag",
		PostTag:    "#rice#bulk",
	}
	for i := 0; i < images; i++ {
		req.Images = append(req.Images, &multipart.FileHeader{Filename: fmt.Sprintf("img%d.png", i)})
	}
	return req
}

func owner() *models.User {
	return &models.User{ID: 7, Phone: "01012345678"}
}

func TestCreatePost(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	uploader := &fakeUploader{}
	svc := newTestService(store, &fakeQueries{}, uploader)

	id, err := svc.Create(context.Background(), owner(), validRequest(1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatal("Create returned zero id")
	}

	post := store.posts[id]
	if post == nil {
		t.Fatal("post not persisted")
	}
	if post.ImageURL1 != "http://objects.test/posts/1.png" {
		t.Fatalf("slot 1 = %q, want the uploaded URL", post.ImageURL1)
	}
	if post.ImageURL2 != testPlaceholder || post.ImageURL3 != testPlaceholder {
		t.Fatalf("slots 2/3 = %q, %q, want placeholder", post.ImageURL2, post.ImageURL3)
	}
	if post.UserID != 7 || post.CategoryID != 1 {
		t.Fatalf("post FKs = user %d category %d", post.UserID, post.CategoryID)
	}

	if got := store.tagNamesFor(id); !reflect.DeepEqual(got, []string{"bulk", "rice"}) {
		t.Fatalf("tags = %v, want [bulk rice]", got)
	}

	if _, ok := store.rooms[id]; !ok {
		t.Fatal("chat room not created")
	}
	if len(store.joins) != 1 || store.joins[0].UserID != 7 {
		t.Fatalf("owner join = %+v, want one join for user 7", store.joins)
	}
}

func TestCreatePostNoImagesFillsAllSlots(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	id, err := svc.Create(context.Background(), owner(), validRequest(0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	post := store.posts[id]
	for i, url := range []string{post.ImageURL1, post.ImageURL2, post.ImageURL3} {
		if url != testPlaceholder {
			t.Fatalf("slot %d = %q, want placeholder", i+1, url)
		}
	}
}

func TestCreatePostNilRequest(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeQueries{}, &fakeUploader{})

	if _, err := svc.Create(context.Background(), owner(), nil); !errors.Is(err, ErrPostCreate) {
		t.Fatalf("error = %v, want %v", err, ErrPostCreate)
	}
}

func TestCreatePostRejectsNonPositiveHeadcount(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	req := validRequest(0)
	req.People = 0
	if _, err := svc.Create(context.Background(), owner(), req); !errors.Is(err, ErrPostCreate) {
		t.Fatalf("error = %v, want %v", err, ErrPostCreate)
	}
}

func TestCreatePostCategoryNotFound(t *testing.T) {
	store := newFakeStore()
	uploader := &fakeUploader{}
	svc := newTestService(store, &fakeQueries{}, uploader)

	_, err := svc.Create(context.Background(), owner(), validRequest(1))
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrCategoryNotFound)
	}
	if uploader.calls != 0 {
		t.Fatalf("uploader called %d times before category check failed", uploader.calls)
	}
	if len(store.ops) != 0 {
		t.Fatalf("store writes before failure: %v", store.ops)
	}
}

func TestCreatePostTooManyImages(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	if _, err := svc.Create(context.Background(), owner(), validRequest(4)); !errors.Is(err, ErrTooManyImages) {
		t.Fatalf("error = %v, want %v", err, ErrTooManyImages)
	}
}

func TestCreatePostBadTagString(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	uploader := &fakeUploader{}
	svc := newTestService(store, &fakeQueries{}, uploader)

	req := validRequest(1)
	req.PostTag = "rice#bulk"
	if _, err := svc.Create(context.Background(), owner(), req); !errors.Is(err, ErrTagFormat) {
		t.Fatalf("error = %v, want %v", err, ErrTagFormat)
	}
	if uploader.calls != 0 {
		t.Fatal("uploader called despite invalid tag string")
	}
}

func TestCreatePostUploadFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	uploader := &fakeUploader{err: errors.New("connection reset")}
	svc := newTestService(store, &fakeQueries{}, uploader)

	if _, err := svc.Create(context.Background(), owner(), validRequest(2)); !errors.Is(err, ErrImageUpload) {
		t.Fatalf("error = %v, want %v", err, ErrImageUpload)
	}
	if len(store.ops) != 0 {
		t.Fatalf("store writes after upload failure: %v", store.ops)
	}
}

func TestCreatePostTagRace(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	store.tagConflict = true
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	id, err := svc.Create(context.Background(), owner(), validRequest(0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := store.tagNamesFor(id); !reflect.DeepEqual(got, []string{"bulk", "rice"}) {
		t.Fatalf("tags after race recovery = %v, want [bulk rice]", got)
	}
}

func TestUpdatePostReplacesTags(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	post := store.seedPost(1, 7)
	store.seedPostTags(post.ID, "a", "b")
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	req := validRequest(0)
	req.PostTag = "#c"
	if err := svc.Update(context.Background(), post.ID, req); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := store.tagNamesFor(post.ID); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("tags after update = %v, want [c]", got)
	}
}

func TestUpdatePostKeepsImagesWhenNoneSupplied(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	post := store.seedPost(1, 7)
	post.ImageURL1 = "http://objects.test/posts/original.png"
	uploader := &fakeUploader{}
	svc := newTestService(store, &fakeQueries{}, uploader)

	if err := svc.Update(context.Background(), post.ID, validRequest(0)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated := store.posts[post.ID]
	if updated.ImageURL1 != "http://objects.test/posts/original.png" {
		t.Fatalf("slot 1 = %q, want the original URL untouched", updated.ImageURL1)
	}
	if uploader.calls != 0 {
		t.Fatal("uploader called with no new images")
	}
}

func TestUpdatePostReplacesImagesWhenSupplied(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	post := store.seedPost(1, 7)
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	if err := svc.Update(context.Background(), post.ID, validRequest(2)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated := store.posts[post.ID]
	if updated.ImageURL1 != "http://objects.test/posts/1.png" ||
		updated.ImageURL2 != "http://objects.test/posts/2.png" {
		t.Fatalf("slots = %q, %q, want the two uploaded URLs", updated.ImageURL1, updated.ImageURL2)
	}
	if updated.ImageURL3 != testPlaceholder {
		t.Fatalf("slot 3 = %q, want placeholder", updated.ImageURL3)
	}
}

func TestUpdatePostNotFound(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	if err := svc.Update(context.Background(), 99, validRequest(0)); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrPostNotFound)
	}
}

func TestDeletePostCascade(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	post := store.seedPost(1, 7)
	store.seedPostTags(post.ID, "a", "b")
	store.rooms[post.ID] = &models.ChatRoom{PostID: post.ID}
	store.joins = append(store.joins,
		models.ChatJoin{PostID: post.ID, UserID: 7},
		models.ChatJoin{PostID: post.ID, UserID: 8},
	)
	store.promises[post.ID] = &models.ChatPromise{PostID: post.ID}
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	if err := svc.Delete(post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	wantOps := []string{
		"DeletePostTags",
		"ChatPromiseExists",
		"DeleteChatPromise",
		"ChatRoomExists",
		"DeleteChatJoins",
		"DeleteChatRoom",
		"DeletePost",
	}
	if !reflect.DeepEqual(store.ops, wantOps) {
		t.Fatalf("cascade order = %v, want %v", store.ops, wantOps)
	}

	if store.postTagRowCount(post.ID) != 0 {
		t.Fatal("post tag rows left behind")
	}
	if _, ok := store.promises[post.ID]; ok {
		t.Fatal("chat promise left behind")
	}
	if len(store.joins) != 0 {
		t.Fatal("chat joins left behind")
	}
	if _, ok := store.rooms[post.ID]; ok {
		t.Fatal("chat room left behind")
	}
	if _, ok := store.posts[post.ID]; ok {
		t.Fatal("post row left behind")
	}
}

func TestDeletePostWithoutChatAggregates(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	post := store.seedPost(1, 7)
	svc := newTestService(store, &fakeQueries{}, &fakeUploader{})

	if err := svc.Delete(post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	wantOps := []string{"DeletePostTags", "ChatPromiseExists", "ChatRoomExists", "DeletePost"}
	if !reflect.DeepEqual(store.ops, wantOps) {
		t.Fatalf("cascade order = %v, want %v", store.ops, wantOps)
	}
}

func TestDeletePostNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeQueries{}, &fakeUploader{})

	if err := svc.Delete(42); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrPostNotFound)
	}
}

func TestListValidatesCategoryFirst(t *testing.T) {
	store := newFakeStore()
	queries := &fakeQueries{}
	svc := newTestService(store, queries, &fakeUploader{})

	missing := uint(99)
	_, err := svc.List(owner(), repositories.SortRecent, &missing, 1, 10)
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrCategoryNotFound)
	}
	if queries.lastFilter != nil {
		t.Fatal("listing query ran despite missing category")
	}
}

func TestListPassesViewerScope(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	queries := &fakeQueries{}
	svc := newTestService(store, queries, &fakeUploader{})

	local1, local2 := uint(3), uint(5)
	viewer := &models.User{ID: 7, Local1ID: &local1, Local2ID: &local2}
	categoryID := uint(1)

	if _, err := svc.List(viewer, repositories.SortDeadline, &categoryID, 1, 10); err != nil {
		t.Fatalf("List: %v", err)
	}

	filter := queries.lastFilter
	if filter == nil {
		t.Fatal("listing query never ran")
	}
	if !reflect.DeepEqual(filter.LocalIDs, []uint{3, 5}) {
		t.Fatalf("filter locals = %v, want [3 5]", filter.LocalIDs)
	}
	if filter.CategoryID == nil || *filter.CategoryID != 1 {
		t.Fatalf("filter category = %v, want 1", filter.CategoryID)
	}
	if filter.Sort != repositories.SortDeadline {
		t.Fatalf("filter sort = %v, want deadline", filter.Sort)
	}
}

func TestSearchPassesViewerScope(t *testing.T) {
	store := newFakeStore()
	queries := &fakeQueries{}
	svc := newTestService(store, queries, &fakeUploader{})

	local1 := uint(3)
	viewer := &models.User{ID: 7, Local1ID: &local1}

	if _, err := svc.Search(viewer, "#rice", 1, 10); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if queries.lastKeyword != "#rice" {
		t.Fatalf("keyword = %q", queries.lastKeyword)
	}
	if !reflect.DeepEqual(queries.lastLocals, []uint{3}) {
		t.Fatalf("locals = %v, want [3]", queries.lastLocals)
	}
}

func TestGetPostDetail(t *testing.T) {
	store := newFakeStore()
	store.seedCategory(1, "food")
	post := store.seedPost(1, 7)
	store.seedPostTags(post.ID, "rice", "bulk")
	queries := &fakeQueries{findPost: post}
	svc := newTestService(store, queries, &fakeUploader{})

	detail, err := svc.Get(post.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.ID != post.ID || detail.Bio != post.Bio {
		t.Fatalf("detail = %+v", detail)
	}

	got := append([]string(nil), detail.Tags...)
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"bulk", "rice"}) {
		t.Fatalf("detail tags = %v, want [bulk rice]", got)
	}
}

func TestGetPostNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeQueries{}, &fakeUploader{})

	if _, err := svc.Get(42); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrPostNotFound)
	}
}

func TestNormalizeImageSlots(t *testing.T) {
	cases := []struct {
		urls []string
		want [3]string
	}{
		{urls: nil, want: [3]string{testPlaceholder, testPlaceholder, testPlaceholder}},
		{urls: []string{"a"}, want: [3]string{"a", testPlaceholder, testPlaceholder}},
		{urls: []string{"a", "b", "c"}, want: [3]string{"a", "b", "c"}},
	}

	for _, tc := range cases {
		if got := normalizeImageSlots(tc.urls, testPlaceholder); got != tc.want {
			t.Fatalf("normalizeImageSlots(%v) = %v, want %v", tc.urls, got, tc.want)
		}
	}
}
