package store

import (
	"context"
	"database/sql"
	"fmt"

	"confide/internal/content"
	"confide/pkg/platform/sentinel"
)

// PostgresStore persists posts, comments and reactions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreatePost(ctx context.Context, post *content.Post) (*content.Post, error) {
	query := `
		INSERT INTO posts (uuid, pseudo, body, status, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	stored := *post
	err := s.db.QueryRowContext(ctx, query,
		post.UUID,
		post.Pseudo,
		post.Body,
		string(post.Status),
		post.IsPublic,
	).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) FindPostByUUID(ctx context.Context, uuid string) (*content.Post, error) {
	query := postColumns + ` WHERE p.uuid = $1 GROUP BY p.id`
	post, err := scanPost(s.db.QueryRowContext(ctx, query, uuid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	if err := s.attachReactions(ctx, content.SubjectPost, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context, publicOnly bool, page, perPage int) (*content.PostPage, error) {
	countQuery := `SELECT COUNT(*) FROM posts`
	listQuery := postColumns
	if publicOnly {
		countQuery += ` WHERE is_public AND status = 'published'`
		listQuery += ` WHERE p.is_public AND p.status = 'published'`
	}
	listQuery += ` GROUP BY p.id ORDER BY p.id DESC LIMIT $1 OFFSET $2`

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listQuery, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*content.Post, 0, perPage)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, post := range posts {
		if err := s.attachReactions(ctx, content.SubjectPost, post); err != nil {
			return nil, err
		}
	}

	return &content.PostPage{
		Posts:      posts,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

func (s *PostgresStore) UpdatePostStatus(ctx context.Context, id int64, status content.PostStatus, isPublic bool) (*content.Post, error) {
	query := `
		UPDATE posts
		SET status = $2, is_public = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, uuid, pseudo, body, status, is_public, created_at, updated_at
	`
	var post content.Post
	var statusText string
	err := s.db.QueryRowContext(ctx, query, id, string(status), isPublic).Scan(
		&post.ID,
		&post.UUID,
		&post.Pseudo,
		&post.Body,
		&statusText,
		&post.IsPublic,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update post status: %w", err)
	}
	post.Status = content.PostStatus(statusText)
	return &post, nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateComment(ctx context.Context, comment *content.Comment) (*content.Comment, error) {
	query := `
		INSERT INTO comments (post_id, pseudo, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	stored := *comment
	err := s.db.QueryRowContext(ctx, query, comment.PostID, comment.Pseudo, comment.Body).
		Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, postID int64, page, perPage int) (*content.CommentPage, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	query := `
		SELECT id, post_id, pseudo, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, postID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*content.Comment, 0, perPage)
	for rows.Next() {
		var comment content.Comment
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.Pseudo, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, comment := range comments {
		reactions, err := s.loadReactions(ctx, content.SubjectComment, comment.ID)
		if err != nil {
			return nil, err
		}
		comment.Reactions = reactions
	}

	return &content.CommentPage{
		Comments:   comments,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// ToggleReaction deletes a matching row when present and inserts one
// otherwise. The unique index on (subject_type, subject_id, emoji,
// identity_hash) makes concurrent double-inserts impossible.
func (s *PostgresStore) ToggleReaction(ctx context.Context, reaction *content.Reaction) (bool, error) {
	deleteQuery := `
		DELETE FROM reactions
		WHERE subject_type = $1 AND subject_id = $2 AND emoji = $3 AND identity_hash = $4
	`
	result, err := s.db.ExecContext(ctx, deleteQuery,
		string(reaction.SubjectType), reaction.SubjectID, reaction.Emoji, reaction.IdentityHash)
	if err != nil {
		return false, fmt.Errorf("toggle reaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("toggle reaction: %w", err)
	}
	if affected > 0 {
		return false, nil
	}

	insertQuery := `
		INSERT INTO reactions (subject_type, subject_id, emoji, identity_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_type, subject_id, emoji, identity_hash) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insertQuery,
		string(reaction.SubjectType), reaction.SubjectID, reaction.Emoji, reaction.IdentityHash); err != nil {
		return false, fmt.Errorf("toggle reaction: %w", err)
	}
	return true, nil
}

const postColumns = `
	SELECT p.id, p.uuid, p.pseudo, p.body, p.status, p.is_public, p.created_at, p.updated_at,
		COUNT(c.id) AS comment_count
	FROM posts p
	LEFT JOIN comments c ON c.post_id = p.id`

type row interface {
	Scan(dest ...any) error
}

func scanPost(r row) (*content.Post, error) {
	var post content.Post
	var statusText string
	if err := r.Scan(
		&post.ID,
		&post.UUID,
		&post.Pseudo,
		&post.Body,
		&statusText,
		&post.IsPublic,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.CommentCount,
	); err != nil {
		return nil, err
	}
	post.Status = content.PostStatus(statusText)
	return &post, nil
}

func (s *PostgresStore) attachReactions(ctx context.Context, subjectType content.SubjectType, post *content.Post) error {
	reactions, err := s.loadReactions(ctx, subjectType, post.ID)
	if err != nil {
		return err
	}
	post.Reactions = reactions
	return nil
}

func (s *PostgresStore) loadReactions(ctx context.Context, subjectType content.SubjectType, subjectID int64) ([]content.Reaction, error) {
	query := `
		SELECT id, subject_type, subject_id, emoji, identity_hash, created_at
		FROM reactions
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(subjectType), subjectID)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}
	defer rows.Close()

	var reactions []content.Reaction
	for rows.Next() {
		var reaction content.Reaction
		var subject string
		if err := rows.Scan(&reaction.ID, &subject, &reaction.SubjectID, &reaction.Emoji, &reaction.IdentityHash, &reaction.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reaction.SubjectType = content.SubjectType(subject)
		reactions = append(reactions, reaction)
	}
	return reactions, rows.Err()
}
