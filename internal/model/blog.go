package model

import "time"

// User is an identity that owns posts, comments, tasks, orders and reviews.
// PasswordHash is opaque; only the injected hasher interprets it.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" validate:"required"`
	Email        string    `json:"email" validate:"required,contains=@"`
	PasswordHash string    `json:"-" validate:"required"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserColumns is the column order of the users table.
var UserColumns = []string{"id", "username", "email", "password_hash", "is_admin", "created_at", "updated_at"}

func (u User) PrimaryKey() int64 { return u.ID }

func (u User) ToRow() Row {
	return Row{
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		encodeBool(u.IsAdmin),
		encodeTimestamp(u.CreatedAt),
		encodeTimestamp(u.UpdatedAt),
	}
}

// UserFromRow decodes a users row.
func UserFromRow(row Row) (User, error) {
	r := newRowReader("user", UserColumns, row)
	u := User{
		ID:           r.int64(),
		Username:     r.string(),
		Email:        r.string(),
		PasswordHash: r.string(),
		IsAdmin:      r.bool(),
		CreatedAt:    r.timestamp(),
		UpdatedAt:    r.timestamp(),
	}
	return u, r.err
}

// CanModify reports whether the user may edit or delete content owned by
// ownerID. The core never calls this; callers enforce it.
func (u User) CanModify(ownerID int64) bool {
	return u.IsAdmin || (u.ID != 0 && u.ID == ownerID)
}

// Post is a piece of user-authored content.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostColumns is the column order of the posts table.
var PostColumns = []string{"id", "title", "content", "user_id", "created_at", "updated_at"}

func (p Post) PrimaryKey() int64 { return p.ID }

func (p Post) ToRow() Row {
	return Row{p.ID, p.Title, p.Content, p.UserID, encodeTimestamp(p.CreatedAt), encodeTimestamp(p.UpdatedAt)}
}

// PostFromRow decodes a posts row.
func PostFromRow(row Row) (Post, error) {
	r := newRowReader("post", PostColumns, row)
	p := Post{
		ID:        r.int64(),
		Title:     r.string(),
		Content:   r.string(),
		UserID:    r.int64(),
		CreatedAt: r.timestamp(),
		UpdatedAt: r.timestamp(),
	}
	return p, r.err
}

// Comment is a comment on a Post.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content" validate:"required"`
	PostID    int64     `json:"post_id" validate:"required"`
	UserID    int64     `json:"user_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentColumns is the column order of the comments table.
var CommentColumns = []string{"id", "content", "post_id", "user_id", "created_at", "updated_at"}

func (c Comment) PrimaryKey() int64 { return c.ID }

func (c Comment) ToRow() Row {
	return Row{c.ID, c.Content, c.PostID, c.UserID, encodeTimestamp(c.CreatedAt), encodeTimestamp(c.UpdatedAt)}
}

// CommentFromRow decodes a comments row.
func CommentFromRow(row Row) (Comment, error) {
	r := newRowReader("comment", CommentColumns, row)
	c := Comment{
		ID:        r.int64(),
		Content:   r.string(),
		PostID:    r.int64(),
		UserID:    r.int64(),
		CreatedAt: r.timestamp(),
		UpdatedAt: r.timestamp(),
	}
	return c, r.err
}

// TaskComment is a comment on a Task. Task threads are kept apart from
// post threads so that each comment has exactly one parent.
type TaskComment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content" validate:"required"`
	TaskID    int64     `json:"task_id" validate:"required"`
	UserID    int64     `json:"user_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskCommentColumns is the column order of the task_comments table.
var TaskCommentColumns = []string{"id", "content", "task_id", "user_id", "created_at", "updated_at"}

func (c TaskComment) PrimaryKey() int64 { return c.ID }

func (c TaskComment) ToRow() Row {
	return Row{c.ID, c.Content, c.TaskID, c.UserID, encodeTimestamp(c.CreatedAt), encodeTimestamp(c.UpdatedAt)}
}

// TaskCommentFromRow decodes a task_comments row.
func TaskCommentFromRow(row Row) (TaskComment, error) {
	r := newRowReader("task comment", TaskCommentColumns, row)
	c := TaskComment{
		ID:        r.int64(),
		Content:   r.string(),
		TaskID:    r.int64(),
		UserID:    r.int64(),
		CreatedAt: r.timestamp(),
		UpdatedAt: r.timestamp(),
	}
	return c, r.err
}

// Task is the task-manager variant of a post. ExternalID is assigned from
// the injected identifier generator before the row exists.
type Task struct {
	ID          int64      `json:"id"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status" validate:"task_status"`
	Priority    Priority   `json:"priority" validate:"priority"`
	DueDate     Date       `json:"due_date" validate:"required"`
	UserID      int64      `json:"user_id" validate:"required"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskColumns is the column order of the tasks table.
var TaskColumns = []string{
	"id", "external_id", "title", "description", "status", "priority",
	"due_date", "user_id", "created_at", "updated_at",
}

func (t Task) PrimaryKey() int64 { return t.ID }

func (t Task) ToRow() Row {
	return Row{
		t.ID,
		t.ExternalID,
		t.Title,
		encodeOptional(t.Description),
		string(t.Status),
		string(t.Priority),
		encodeDate(t.DueDate),
		t.UserID,
		encodeTimestamp(t.CreatedAt),
		encodeTimestamp(t.UpdatedAt),
	}
}

// TaskFromRow decodes a tasks row.
func TaskFromRow(row Row) (Task, error) {
	r := newRowReader("task", TaskColumns, row)
	t := Task{
		ID:          r.int64(),
		ExternalID:  r.string(),
		Title:       r.string(),
		Description: r.string(),
		Status:      TaskStatus(r.string()),
		Priority:    Priority(r.string()),
		DueDate:     r.date(),
		UserID:      r.int64(),
		CreatedAt:   r.timestamp(),
		UpdatedAt:   r.timestamp(),
	}
	return t, r.err
}
