package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"confide/internal/content"
	"confide/pkg/platform/sentinel"
)

// MemoryStore is the in-memory content store used by unit tests.
type MemoryStore struct {
	mu             sync.RWMutex
	posts          map[int64]*content.Post
	comments       map[int64]*content.Comment
	reactions      map[int64]*content.Reaction
	nextPostID     int64
	nextCommentID  int64
	nextReactionID int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		posts:          make(map[int64]*content.Post),
		comments:       make(map[int64]*content.Comment),
		reactions:      make(map[int64]*content.Reaction),
		nextPostID:     1,
		nextCommentID:  1,
		nextReactionID: 1,
	}
}

func (s *MemoryStore) CreatePost(_ context.Context, post *content.Post) (*content.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *post
	stored.ID = s.nextPostID
	s.nextPostID++
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.posts[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (s *MemoryStore) FindPostByUUID(_ context.Context, uuid string) (*content.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, post := range s.posts {
		if post.UUID == uuid {
			copied := *post
			copied.CommentCount = s.countComments(post.ID)
			copied.Reactions = s.reactionsFor(content.SubjectPost, post.ID)
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListPosts(_ context.Context, publicOnly bool, page, perPage int) (*content.PostPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*content.Post, 0, len(s.posts))
	for _, post := range s.posts {
		if publicOnly && (!post.IsPublic || post.Status != content.StatusPublished) {
			continue
		}
		matched = append(matched, post)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := (page - 1) * perPage
	result := make([]*content.Post, 0, perPage)
	for i := start; i < total && len(result) < perPage; i++ {
		copied := *matched[i]
		copied.CommentCount = s.countComments(copied.ID)
		copied.Reactions = s.reactionsFor(content.SubjectPost, copied.ID)
		result = append(result, &copied)
	}

	return &content.PostPage{
		Posts:      result,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

func (s *MemoryStore) UpdatePostStatus(_ context.Context, id int64, status content.PostStatus, isPublic bool) (*content.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	post.Status = status
	post.IsPublic = isPublic
	post.UpdatedAt = time.Now()

	copied := *post
	return &copied, nil
}

func (s *MemoryStore) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.posts, id)
	for commentID, comment := range s.comments {
		if comment.PostID == id {
			delete(s.comments, commentID)
		}
	}
	return nil
}

func (s *MemoryStore) CreateComment(_ context.Context, comment *content.Comment) (*content.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, sentinel.ErrNotFound
	}

	stored := *comment
	stored.ID = s.nextCommentID
	s.nextCommentID++
	stored.CreatedAt = time.Now()
	s.comments[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (s *MemoryStore) ListComments(_ context.Context, postID int64, page, perPage int) (*content.CommentPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*content.Comment, 0)
	for _, comment := range s.comments {
		if comment.PostID == postID {
			matched = append(matched, comment)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := (page - 1) * perPage
	result := make([]*content.Comment, 0, perPage)
	for i := start; i < total && len(result) < perPage; i++ {
		copied := *matched[i]
		copied.Reactions = s.reactionsFor(content.SubjectComment, copied.ID)
		result = append(result, &copied)
	}

	return &content.CommentPage{
		Comments:   result,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// ToggleReaction adds the reaction if this identity has not set it on the
// subject, and removes it otherwise. Returns true when the reaction is now
// present.
func (s *MemoryStore) ToggleReaction(_ context.Context, reaction *content.Reaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.reactions {
		if existing.SubjectType == reaction.SubjectType &&
			existing.SubjectID == reaction.SubjectID &&
			existing.Emoji == reaction.Emoji &&
			existing.IdentityHash == reaction.IdentityHash {
			delete(s.reactions, id)
			return false, nil
		}
	}

	stored := *reaction
	stored.ID = s.nextReactionID
	s.nextReactionID++
	stored.CreatedAt = time.Now()
	s.reactions[stored.ID] = &stored
	return true, nil
}

func (s *MemoryStore) countComments(postID int64) int {
	count := 0
	for _, comment := range s.comments {
		if comment.PostID == postID {
			count++
		}
	}
	return count
}

func (s *MemoryStore) reactionsFor(subjectType content.SubjectType, subjectID int64) []content.Reaction {
	var result []content.Reaction
	for _, reaction := range s.reactions {
		if reaction.SubjectType == subjectType && reaction.SubjectID == subjectID {
			result = append(result, *reaction)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
