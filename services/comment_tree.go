package services

import (
	"sort"
	"time"

	"github.com/yjchoi-grove/vibe-coding/models"
)

// ReplyOrder selects how replies under a top-level comment are ordered.
type ReplyOrder int

const (
	// RepliesAscending is used by the comment list endpoint.
	RepliesAscending ReplyOrder = iota
	// RepliesDescending is used by the post detail endpoint.
	RepliesDescending
)

// AuthorView identifies the writer of a post or comment.
type AuthorView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommentView is a rendered comment. Replies of a reply are never populated.
type CommentView struct {
	ID        uint          `json:"id"`
	Content   string        `json:"content"`
	Author    AuthorView    `json:"author"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	IsDeleted bool          `json:"isDeleted"`
	ParentID  uint          `json:"parent_id"`
	Replies   []CommentView `json:"replies"`
}

type commentNode struct {
	comment models.Comment
	replies []int
}

// BuildCommentTree turns the flat comments of one post into top-level comments with one level of replies.
//
// Comments are ordered by created_at then id. A reply whose parent is not in
// the input is dropped. Top-level order is always ascending; order only
// applies to replies. names maps author ids to display names.
func BuildCommentTree(comments []models.Comment, order ReplyOrder, names map[string]string) []CommentView {
	sorted := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if !c.Deleted {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return commentBefore(sorted[i], sorted[j])
	})

	nodes := make([]commentNode, len(sorted))
	index := make(map[uint]int, len(sorted))
	for i, c := range sorted {
		nodes[i] = commentNode{comment: c}
		index[c.ID] = i
	}
	for i := range nodes {
		parentID := nodes[i].comment.ParentCommentID
		if parentID == 0 {
			continue
		}
		p, ok := index[parentID]
		if !ok || p == i {
			continue
		}
		nodes[p].replies = append(nodes[p].replies, i)
	}

	out := make([]CommentView, 0, len(nodes))
	for i := range nodes {
		if nodes[i].comment.ParentCommentID != 0 {
			continue
		}
		view := toCommentView(nodes[i].comment, names)
		replies := make([]models.Comment, 0, len(nodes[i].replies))
		for _, r := range nodes[i].replies {
			replies = append(replies, nodes[r].comment)
		}
		if order == RepliesDescending {
			sort.SliceStable(replies, func(a, b int) bool {
				return commentBefore(replies[b], replies[a])
			})
		}
		for _, r := range replies {
			view.Replies = append(view.Replies, toCommentView(r, names))
		}
		out = append(out, view)
	}
	return out
}

func commentBefore(a, b models.Comment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func toCommentView(c models.Comment, names map[string]string) CommentView {
	return CommentView{
		ID:        c.ID,
		Content:   c.Content,
		Author:    authorView(c.AuthorID, names),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		IsDeleted: c.Deleted,
		ParentID:  c.ParentCommentID,
		Replies:   []CommentView{},
	}
}

// unknownAuthor is shown when the writer's user row is missing.
const unknownAuthor = "Unknown"

func authorView(id string, names map[string]string) AuthorView {
	name, ok := names[id]
	if !ok {
		name = unknownAuthor
	}
	return AuthorView{ID: id, Name: name}
}
