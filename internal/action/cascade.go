package action

import (
	"context"
	"fmt"

	"github.com/roach88/recordstore/internal/store"
)

// cascadeSteps delete everything a user owns, children before parents.
// Each statement takes the user id as its only parameter.
var cascadeSteps = []struct {
	table string
	query string
}{
	// Comments by anyone on the user's posts, and the user's comments anywhere.
	{"comments", `DELETE FROM comments
		WHERE post_id IN (SELECT id FROM posts WHERE user_id = ?1) OR user_id = ?1`},
	{"posts", `DELETE FROM posts WHERE user_id = ?1`},
	{"order_items", `DELETE FROM order_items
		WHERE order_id IN (SELECT id FROM orders WHERE user_id = ?1)`},
	{"orders", `DELETE FROM orders WHERE user_id = ?1`},
	{"reviews", `DELETE FROM reviews WHERE user_id = ?1`},
	// Comments by anyone on the user's tasks, and the user's comments on any task.
	{"task_comments", `DELETE FROM task_comments
		WHERE task_id IN (SELECT id FROM tasks WHERE user_id = ?1) OR user_id = ?1`},
	{"tasks", `DELETE FROM tasks WHERE user_id = ?1`},
	{"users", `DELETE FROM users WHERE id = ?1`},
}

// CascadeReport counts rows removed per table.
type CascadeReport map[string]int64

// DeleteUserCascade deletes a user and every row the user owns: posts
// (with all their comments), comments, orders with their items, reviews,
// tasks (with all their comments) and task comments. Stock consumed by the deleted orders is not returned.
func (a *Actions) DeleteUserCascade(ctx context.Context, userID int64) (CascadeReport, error) {
	report := CascadeReport{}
	err := a.s.Transaction(ctx, func(ctx context.Context) error {
		if _, found, err := a.repos.Users.Get(ctx, userID); err != nil {
			return err
		} else if !found {
			return store.NewNotFoundError("user", userID)
		}
		for _, step := range cascadeSteps {
			res, err := a.s.Exec(ctx, step.query, userID)
			if err != nil {
				return fmt.Errorf("delete %s: %w", step.table, err)
			}
			report[step.table] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
