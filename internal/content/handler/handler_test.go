package handler_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"confide/internal/content"
	"confide/internal/content/handler"
	contentstore "confide/internal/content/store"
	"confide/internal/gate"
	"confide/internal/identity"
	"confide/internal/moderation"
	"confide/internal/rejection"
	rejectionstore "confide/internal/rejection/store"
	"confide/pkg/platform/middleware/metadata"
	"confide/pkg/testutil"
)

type stubModerator struct {
	verdict moderation.Verdict
}

func (s *stubModerator) Moderate(_ context.Context, _ moderation.SubmissionType, _, _ string) moderation.Verdict {
	return s.verdict
}

type stubChecker struct{}

func (stubChecker) IsBanned(context.Context, string) (bool, error) { return false, nil }

type HandlerSuite struct {
	suite.Suite
	moderator *stubModerator
	contents  *content.Service
	router    chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	hasher, err := identity.NewHasher("test-secret")
	s.Require().NoError(err)

	s.moderator = &stubModerator{verdict: moderation.Verdict{
		Approved: true,
		Decision: moderation.DecisionApproved,
	}}

	s.contents, err = content.New(contentstore.NewMemory())
	s.Require().NoError(err)
	rejections, err := rejection.New(rejectionstore.NewMemory())
	s.Require().NoError(err)

	g, err := gate.New(hasher, stubChecker{}, s.moderator, rejections, s.contents)
	s.Require().NoError(err)

	h := handler.New(g, s.contents, hasher, slog.Default())
	s.router = chi.NewRouter()
	s.router.Use(withClient("203.0.113.7"))
	s.router.Post("/posts", h.CreatePost)
	s.router.Get("/posts", h.ListPosts)
	s.router.Get("/posts/{uuid}", h.GetPost)
	s.router.Post("/posts/{uuid}/comments", h.CreateComment)
	s.router.Get("/posts/{uuid}/comments", h.ListComments)
	s.router.Post("/posts/{uuid}/reactions", h.ReactToPost)
	s.router.Patch("/admin/posts/{uuid}", h.AdminUpdatePost)
	s.router.Delete("/admin/posts/{uuid}", h.AdminDeletePost)
}

func withClient(addr string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(metadata.WithClientMetadata(r.Context(), addr, "test-agent")))
		})
	}
}

func (s *HandlerSuite) createPost() *content.Post {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/posts",
		`{"pseudo":"anon","body":"my confession"}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return testutil.UnmarshalResponse[content.Post](s.T(), rr)
}

func (s *HandlerSuite) TestCreatePost() {
	post := s.createPost()
	s.NotEmpty(post.UUID)
	s.Equal("my confession", post.Body)
}

func (s *HandlerSuite) TestCreatePostRejected() {
	s.moderator.verdict = moderation.Verdict{
		Approved: false,
		Decision: moderation.DecisionRejected,
		Reason:   "insult detected",
	}

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/posts",
		`{"pseudo":"anon","body":"something nasty"}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	testutil.AssertErrorCode(s.T(), rr, "unprocessable")
}

func (s *HandlerSuite) TestCreatePostMalformedBody() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/posts", `{`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *HandlerSuite) TestGetPost() {
	post := s.createPost()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/posts/"+post.UUID))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	found := testutil.UnmarshalResponse[content.Post](s.T(), rr)
	s.Equal(post.UUID, found.UUID)
}

func (s *HandlerSuite) TestGetPostNotFound() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/posts/5a1b1f10-0000-4000-8000-000000000000"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "not_found")
}

func (s *HandlerSuite) TestListPosts() {
	s.createPost()
	s.createPost()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/posts?per_page=1"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page := testutil.UnmarshalResponse[content.PostPage](s.T(), rr)
	s.Len(page.Posts, 1)
	s.Equal(2, page.Total)
}

func (s *HandlerSuite) TestComments() {
	post := s.createPost()

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost,
		fmt.Sprintf("/posts/%s/comments", post.UUID),
		`{"pseudo":"other","body":"a reply"}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, fmt.Sprintf("/posts/%s/comments", post.UUID)))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page := testutil.UnmarshalResponse[content.CommentPage](s.T(), rr)
	s.Len(page.Comments, 1)
}

func (s *HandlerSuite) TestReactToPost() {
	post := s.createPost()

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost,
		fmt.Sprintf("/posts/%s/reactions", post.UUID), `{"emoji":"🔥"}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
	s.True((*resp)["added"])

	rr = testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost,
		fmt.Sprintf("/posts/%s/reactions", post.UUID), `{"emoji":"🔥"}`))
	resp = testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
	s.False((*resp)["added"])
}

func (s *HandlerSuite) TestAdminUpdatePost() {
	post := s.createPost()

	req := testutil.NewRequestWithBody(s.T(), http.MethodPatch,
		"/admin/posts/"+post.UUID, `{"status":"archived","is_public":false}`)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	updated := testutil.UnmarshalResponse[content.Post](s.T(), rr)
	s.Equal(content.StatusArchived, updated.Status)
	s.False(updated.IsPublic)
}

func (s *HandlerSuite) TestAdminDeletePost() {
	post := s.createPost()

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodDelete, "/admin/posts/"+post.UUID))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/posts/"+post.UUID))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}
