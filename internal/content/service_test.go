package content_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"confide/internal/content"
	"confide/internal/content/store"
	dErrors "confide/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.MemoryStore
	service *content.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()

	var err error
	s.service, err = content.New(s.store)
	s.Require().NoError(err)
}

func (s *ServiceSuite) createPost(pseudo, body string) *content.Post {
	post, err := s.service.CreatePost(context.Background(), pseudo, body)
	s.Require().NoError(err)
	return post
}

func (s *ServiceSuite) TestValidateSubmission() {
	s.Run("valid submission passes", func() {
		s.NoError(content.ValidateSubmission("anon", "a confession"))
	})

	s.Run("blank body is rejected", func() {
		err := content.ValidateSubmission("anon", "   ")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("oversized body is rejected", func() {
		err := content.ValidateSubmission("anon", strings.Repeat("x", 5001))
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("oversized pseudo is rejected", func() {
		err := content.ValidateSubmission(strings.Repeat("p", 51), "body")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestCreatePost() {
	post := s.createPost("anon", "my confession")

	s.NotZero(post.ID)
	s.NotEmpty(post.UUID)
	s.Equal(content.StatusPublished, post.Status)
	s.True(post.IsPublic)
}

func (s *ServiceSuite) TestGetPost() {
	s.Run("malformed identifier is a bad request", func() {
		_, err := s.service.GetPost(context.Background(), "not-a-uuid")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown post is not found", func() {
		_, err := s.service.GetPost(context.Background(), "7f1e3c1a-0000-4000-8000-000000000000")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("existing post is returned with counts", func() {
		post := s.createPost("anon", "visible")
		_, err := s.service.CreateComment(context.Background(), post.UUID, "other", "a reply")
		s.Require().NoError(err)

		found, err := s.service.GetPost(context.Background(), post.UUID)
		s.Require().NoError(err)
		s.Equal(post.UUID, found.UUID)
		s.Equal(1, found.CommentCount)
	})
}

func (s *ServiceSuite) TestListPosts() {
	for i := 0; i < 3; i++ {
		s.createPost("anon", "public post")
	}
	hidden := s.createPost("anon", "hidden post")
	_, err := s.service.UpdatePostStatus(context.Background(), hidden.UUID, content.StatusArchived, false)
	s.Require().NoError(err)

	s.Run("public feed excludes archived posts", func() {
		page, err := s.service.ListPosts(context.Background(), 1, 10)
		s.Require().NoError(err)
		s.Len(page.Posts, 3)
		s.Equal(3, page.Total)
	})

	s.Run("admin listing includes everything", func() {
		page, err := s.service.ListAllPosts(context.Background(), 1, 10)
		s.Require().NoError(err)
		s.Len(page.Posts, 4)
	})

	s.Run("newest posts come first", func() {
		page, err := s.service.ListPosts(context.Background(), 1, 10)
		s.Require().NoError(err)
		s.Greater(page.Posts[0].ID, page.Posts[2].ID)
	})
}

func (s *ServiceSuite) TestUpdatePostStatus() {
	post := s.createPost("anon", "confession")

	s.Run("invalid status is rejected", func() {
		_, err := s.service.UpdatePostStatus(context.Background(), post.UUID, "unknown", true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("status change is persisted", func() {
		updated, err := s.service.UpdatePostStatus(context.Background(), post.UUID, content.StatusArchived, false)
		s.Require().NoError(err)
		s.Equal(content.StatusArchived, updated.Status)
		s.False(updated.IsPublic)
	})
}

func (s *ServiceSuite) TestDeletePost() {
	post := s.createPost("anon", "to delete")
	_, err := s.service.CreateComment(context.Background(), post.UUID, "other", "reply")
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeletePost(context.Background(), post.UUID))

	_, err = s.service.GetPost(context.Background(), post.UUID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListComments() {
	post := s.createPost("anon", "confession")
	for i := 0; i < 5; i++ {
		_, err := s.service.CreateComment(context.Background(), post.UUID, "other", "reply")
		s.Require().NoError(err)
	}

	page, err := s.service.ListComments(context.Background(), post.UUID, 1, 3)
	s.Require().NoError(err)
	s.Len(page.Comments, 3)
	s.Equal(5, page.Total)
	s.Equal(2, page.TotalPages)
	s.Less(page.Comments[0].ID, page.Comments[2].ID)
}

func (s *ServiceSuite) TestToggleReaction() {
	post := s.createPost("anon", "confession")

	s.Run("missing identity cannot react", func() {
		_, err := s.service.ToggleReaction(context.Background(), content.SubjectPost, post.ID, "🔥", "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnprocessable))
	})

	s.Run("first toggle adds, second removes", func() {
		added, err := s.service.ToggleReaction(context.Background(), content.SubjectPost, post.ID, "🔥", "hash1")
		s.Require().NoError(err)
		s.True(added)

		added, err = s.service.ToggleReaction(context.Background(), content.SubjectPost, post.ID, "🔥", "hash1")
		s.Require().NoError(err)
		s.False(added)
	})

	s.Run("distinct identities react independently", func() {
		_, err := s.service.ToggleReaction(context.Background(), content.SubjectPost, post.ID, "🔥", "hash1")
		s.Require().NoError(err)
		_, err = s.service.ToggleReaction(context.Background(), content.SubjectPost, post.ID, "🔥", "hash2")
		s.Require().NoError(err)

		found, err := s.service.GetPost(context.Background(), post.UUID)
		s.Require().NoError(err)
		s.Len(found.Reactions, 2)
	})
}
