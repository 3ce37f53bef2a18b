package content

import "time"

// PostStatus is the publication state of a post. Only published posts are
// served to the public feed.
type PostStatus string

const (
	StatusWaiting   PostStatus = "waiting"
	StatusPublished PostStatus = "published"
	StatusArchived  PostStatus = "archived"
)

func (s PostStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Post is an anonymous confession. UUID is the public identifier; the serial
// ID never leaves the admin surface.
type Post struct {
	ID           int64      `json:"id"`
	UUID         string     `json:"uuid"`
	Pseudo       string     `json:"pseudo"`
	Body         string     `json:"body"`
	Status       PostStatus `json:"status"`
	IsPublic     bool       `json:"is_public"`
	CommentCount int        `json:"comment_count"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Comment is an anonymous reply on a post.
type Comment struct {
	ID        int64      `json:"id"`
	PostID    int64      `json:"post_id"`
	Pseudo    string     `json:"pseudo"`
	Body      string     `json:"body"`
	Reactions []Reaction `json:"reactions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SubjectType scopes a reaction to its entity kind.
type SubjectType string

const (
	SubjectPost    SubjectType = "post"
	SubjectComment SubjectType = "comment"
)

// Reaction is one emoji toggled on a post or comment by one identity.
type Reaction struct {
	ID           int64       `json:"id"`
	SubjectType  SubjectType `json:"-"`
	SubjectID    int64       `json:"-"`
	Emoji        string      `json:"emoji"`
	IdentityHash string      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}

// PostPage is one page of the public feed.
type PostPage struct {
	Posts      []*Post `json:"data"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	TotalPages int     `json:"total_pages"`
}

// CommentPage is one page of a post's comments.
type CommentPage struct {
	Comments   []*Comment `json:"data"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}
