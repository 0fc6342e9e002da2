package repo

import (
	"context"

	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/store"
)

// Posts stores user-authored posts.
type Posts struct {
	t     table[model.Post]
	clock collab.Clock
}

// NewPosts returns the posts repository over s.
func NewPosts(s *store.Store, clock collab.Clock) *Posts {
	return &Posts{t: newTable(s, "posts", "post", model.PostColumns, model.PostFromRow), clock: clock}
}

// Add inserts p and assigns p.ID and both timestamps.
func (r *Posts) Add(ctx context.Context, p *model.Post) (int64, error) {
	p.Title = clean(p.Title)
	p.Content = nfc(p.Content)
	if err := check("post", p); err != nil {
		return 0, err
	}
	now := model.Stamp(r.clock.Now())
	rec := *p
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*p = rec
	return id, nil
}

// Get returns the post with id, or found=false.
func (r *Posts) Get(ctx context.Context, id int64) (model.Post, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the posts matching f in id order.
func (r *Posts) List(ctx context.Context, f Filter) ([]model.Post, error) {
	return r.t.list(ctx, f)
}

// Update rewrites p and stamps UpdatedAt.
func (r *Posts) Update(ctx context.Context, p *model.Post) error {
	if err := requireID("post", p.ID); err != nil {
		return err
	}
	p.Title = clean(p.Title)
	p.Content = nfc(p.Content)
	if err := check("post", p); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, p.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("post", p.ID)
	}

	rec := *p
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = model.Stamp(r.clock.Now())
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*p = rec
	return nil
}

// Delete removes the post. Comments still attached make this a
// ConstraintViolation.
func (r *Posts) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Comments stores comments on posts.
type Comments struct {
	t     table[model.Comment]
	clock collab.Clock
}

// NewComments returns the comments repository over s.
func NewComments(s *store.Store, clock collab.Clock) *Comments {
	return &Comments{t: newTable(s, "comments", "comment", model.CommentColumns, model.CommentFromRow), clock: clock}
}

// Add inserts c and assigns c.ID and both timestamps.
func (r *Comments) Add(ctx context.Context, c *model.Comment) (int64, error) {
	c.Content = clean(c.Content)
	if err := check("comment", c); err != nil {
		return 0, err
	}
	now := model.Stamp(r.clock.Now())
	rec := *c
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*c = rec
	return id, nil
}

// Get returns the comment with id, or found=false.
func (r *Comments) Get(ctx context.Context, id int64) (model.Comment, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the comments matching f in id order.
func (r *Comments) List(ctx context.Context, f Filter) ([]model.Comment, error) {
	return r.t.list(ctx, f)
}

// Update rewrites c and stamps UpdatedAt.
func (r *Comments) Update(ctx context.Context, c *model.Comment) error {
	if err := requireID("comment", c.ID); err != nil {
		return err
	}
	c.Content = clean(c.Content)
	if err := check("comment", c); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, c.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("comment", c.ID)
	}

	rec := *c
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = model.Stamp(r.clock.Now())
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*c = rec
	return nil
}

// Delete removes the comment.
func (r *Comments) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// TaskComments stores comments on tasks.
type TaskComments struct {
	t     table[model.TaskComment]
	clock collab.Clock
}

// NewTaskComments returns the task_comments repository over s.
func NewTaskComments(s *store.Store, clock collab.Clock) *TaskComments {
	return &TaskComments{
		t:     newTable(s, "task_comments", "task comment", model.TaskCommentColumns, model.TaskCommentFromRow),
		clock: clock,
	}
}

// Add inserts c and assigns c.ID and both timestamps. A missing task or
// user is a ConstraintViolation.
func (r *TaskComments) Add(ctx context.Context, c *model.TaskComment) (int64, error) {
	c.Content = clean(c.Content)
	if err := check("task comment", c); err != nil {
		return 0, err
	}
	now := model.Stamp(r.clock.Now())
	rec := *c
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*c = rec
	return id, nil
}

// Get returns the comment with id, or found=false.
func (r *TaskComments) Get(ctx context.Context, id int64) (model.TaskComment, bool, error) {
	return r.t.get(ctx, id)
}

// List returns the comments matching f in id order.
func (r *TaskComments) List(ctx context.Context, f Filter) ([]model.TaskComment, error) {
	return r.t.list(ctx, f)
}

// Update rewrites the content of c and stamps UpdatedAt. The task and
// author stay as they were.
func (r *TaskComments) Update(ctx context.Context, c *model.TaskComment) error {
	if err := requireID("task comment", c.ID); err != nil {
		return err
	}
	c.Content = clean(c.Content)
	current, found, err := r.t.get(ctx, c.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("task comment", c.ID)
	}

	rec := current
	rec.Content = c.Content
	if err := check("task comment", &rec); err != nil {
		return err
	}
	rec.UpdatedAt = model.Stamp(r.clock.Now())
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*c = rec
	return nil
}

// Delete removes the comment.
func (r *TaskComments) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}

// Tasks stores task-manager tasks. Status changes follow
// model.CanTransition; ExternalID comes from the injected generator and
// never changes.
type Tasks struct {
	t     table[model.Task]
	clock collab.Clock
	ids   collab.IDGenerator
}

// NewTasks returns the tasks repository over s.
func NewTasks(s *store.Store, clock collab.Clock, ids collab.IDGenerator) *Tasks {
	return &Tasks{
		t:     newTable(s, "tasks", "task", model.TaskColumns, model.TaskFromRow),
		clock: clock,
		ids:   ids,
	}
}

func (r *Tasks) normalize(t *model.Task) {
	t.Title = clean(t.Title)
	t.Description = nfc(t.Description)
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
}

// Add inserts t in status todo and assigns ID, ExternalID and timestamps.
// An empty status means todo; any other initial status is rejected.
func (r *Tasks) Add(ctx context.Context, t *model.Task) (int64, error) {
	r.normalize(t)
	if t.Status == "" {
		t.Status = model.TaskTodo
	}
	if t.Status != model.TaskTodo {
		return 0, store.NewValidationError("task", "status", "new tasks start in todo")
	}
	if err := check("task", t); err != nil {
		return 0, err
	}

	now := model.Stamp(r.clock.Now())
	rec := *t
	rec.ExternalID = r.ids.Generate()
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := r.t.insert(ctx, rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	*t = rec
	return id, nil
}

// Get returns the task with id, or found=false.
func (r *Tasks) Get(ctx context.Context, id int64) (model.Task, bool, error) {
	return r.t.get(ctx, id)
}

// ByExternalID looks a task up by its external id.
func (r *Tasks) ByExternalID(ctx context.Context, externalID string) (model.Task, bool, error) {
	tasks, err := r.t.list(ctx, Where("external_id", externalID))
	if err != nil || len(tasks) == 0 {
		return model.Task{}, false, err
	}
	return tasks[0], true, nil
}

// List returns the tasks matching f in id order.
func (r *Tasks) List(ctx context.Context, f Filter) ([]model.Task, error) {
	return r.t.list(ctx, f)
}

// Update rewrites t and stamps UpdatedAt. Keeping the current status is
// always allowed; a status change outside the permitted set fails with
// InvalidTransition and stores nothing.
func (r *Tasks) Update(ctx context.Context, t *model.Task) error {
	if err := requireID("task", t.ID); err != nil {
		return err
	}
	current, found, err := r.t.get(ctx, t.ID)
	if err != nil {
		return err
	}
	if !found {
		return store.NewNotFoundError("task", t.ID)
	}
	if t.Status != current.Status && !model.CanTransition(current.Status, t.Status) {
		return store.NewInvalidTransitionError(t.ID, string(current.Status), string(t.Status))
	}
	r.normalize(t)
	if err := check("task", t); err != nil {
		return err
	}

	rec := *t
	rec.ExternalID = current.ExternalID
	rec.CreatedAt = current.CreatedAt
	rec.UpdatedAt = model.Stamp(r.clock.Now())
	if err := r.t.update(ctx, rec); err != nil {
		return err
	}
	*t = rec
	return nil
}

// Delete removes the task. Comments still on the task make this a
// ConstraintViolation.
func (r *Tasks) Delete(ctx context.Context, id int64) error {
	return r.t.delete(ctx, id)
}
