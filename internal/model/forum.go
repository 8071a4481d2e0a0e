package model

import "time"

// Post is a community forum post. Posts are persisted with generated ids;
// comments are loaded alongside their post.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

// Comment is a reply attached to a forum post.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
