package action

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/query"
	"github.com/roach88/recordstore/internal/repo"
	"github.com/roach88/recordstore/internal/stats"
	"github.com/roach88/recordstore/internal/store"
	"github.com/roach88/recordstore/internal/testutil"
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	path    string
	store   *store.Store
	repos   *repo.Set
	q       *query.Queries
	actions *Actions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	repos := repo.NewSet(s, repo.Deps{Clock: testutil.NewStepClock(time.Time{})})
	q := query.New(s)
	return &fixture{
		t:       t,
		ctx:     context.Background(),
		path:    path,
		store:   s,
		repos:   repos,
		q:       q,
		actions: New(s, repos, q),
	}
}

func (f *fixture) added(_ int64, err error) {
	f.t.Helper()
	require.NoError(f.t, err)
}

func (f *fixture) count(table string) int {
	f.t.Helper()
	rows, err := f.store.Query(f.ctx, "SELECT COUNT(*) FROM "+table)
	require.NoError(f.t, err)
	return int(rows[0][0].(int64))
}

func (f *fixture) classWithStudents(n int) (model.Class, []model.Student) {
	f.t.Helper()
	c := model.Class{Name: "1반", Grade: 1, Teacher: "김", RoomNumber: "101"}
	f.added(f.repos.Classes.Add(f.ctx, &c))
	students := make([]model.Student, n)
	for i := range students {
		students[i] = model.Student{
			Name:      fmt.Sprintf("학생%d", i+1),
			StudentNo: fmt.Sprintf("2023%04d", i+1),
			BirthDate: model.MustDate("2008-03-01"),
			ClassID:   c.ID,
		}
		f.added(f.repos.Students.Add(f.ctx, &students[i]))
	}
	return c, students
}

func (f *fixture) user(name string) model.User {
	f.t.Helper()
	u := model.User{Username: name, Email: name + "@x.com", PasswordHash: "h"}
	f.added(f.repos.Users.Add(f.ctx, &u))
	return u
}

func (f *fixture) product(name string, price float64, stock int) model.Product {
	f.t.Helper()
	p := model.Product{Name: name, Price: price, Stock: stock}
	f.added(f.repos.Products.Add(f.ctx, &p))
	return p
}

func (f *fixture) stock(id int64) int {
	f.t.Helper()
	p, found, err := f.repos.Products.Get(f.ctx, id)
	require.NoError(f.t, err)
	require.True(f.t, found)
	return p.Stock
}

// Bulk attendance

func TestBulkAttendance_MarksEveryStudent(t *testing.T) {
	f := newFixture(t)
	c, students := f.classWithStudents(5)
	day := model.MustDate("2024-05-01")

	marks, err := f.actions.BulkAttendance(f.ctx, c.ID, day, model.AttendancePresent, "")
	require.NoError(t, err)
	require.Len(t, marks, 5)
	for i, m := range marks {
		assert.Equal(t, students[i].ID, m.StudentID)
		assert.Equal(t, day, m.Date)
		assert.Equal(t, model.AttendancePresent, m.Status)
	}

	rows, err := f.q.AttendanceForClass(f.ctx, c.ID, day)
	require.NoError(t, err)
	assert.Equal(t, marks, rows)
	assert.Equal(t, 5, stats.TallyAttendance(rows)[model.AttendancePresent])
}

func TestBulkAttendance_MissingTableLeavesNoPartialRows(t *testing.T) {
	f := newFixture(t)
	c, _ := f.classWithStudents(5)
	_, err := f.actions.BulkAttendance(f.ctx, c.ID, model.MustDate("2024-05-01"), model.AttendancePresent, "")
	require.NoError(t, err)

	_, err = f.store.Exec(f.ctx, "ALTER TABLE attendance RENAME TO attendance_hidden")
	require.NoError(t, err)

	_, err = f.actions.BulkAttendance(f.ctx, c.ID, model.MustDate("2024-05-02"), model.AttendanceLate, "")
	assert.True(t, store.IsStorageUnavailable(err) || store.IsConstraint(err), "got %v", err)
	assert.False(t, f.store.InTransaction())

	_, err = f.store.Exec(f.ctx, "ALTER TABLE attendance_hidden RENAME TO attendance")
	require.NoError(t, err)
	assert.Equal(t, 5, f.count("attendance"))
}

func TestBulkAttendance_FailureMidwayRollsBack(t *testing.T) {
	f := newFixture(t)
	c, students := f.classWithStudents(5)

	// Abort on the fourth student, after three rows have been written.
	trigger := fmt.Sprintf(`CREATE TRIGGER fail_fourth BEFORE INSERT ON attendance
		WHEN NEW.student_id = %d BEGIN SELECT RAISE(ABORT, 'disk full'); END`, students[3].ID)
	_, err := f.store.Exec(f.ctx, trigger)
	require.NoError(t, err)

	_, err = f.actions.BulkAttendance(f.ctx, c.ID, model.MustDate("2024-05-01"), model.AttendancePresent, "")
	require.True(t, store.IsConstraint(err), "got %v", err)
	assert.Equal(t, 0, f.count("attendance"))
}

func TestBulkAttendance_Validation(t *testing.T) {
	f := newFixture(t)
	c, _ := f.classWithStudents(1)

	_, err := f.actions.BulkAttendance(f.ctx, c.ID, model.MustDate("2024-05-01"), "present", "")
	assert.True(t, store.IsValidation(err), "got %v", err)

	_, err = f.actions.BulkAttendance(f.ctx, c.ID, model.Date{}, model.AttendancePresent, "")
	assert.True(t, store.IsValidation(err), "got %v", err)

	marks, err := f.actions.BulkAttendance(f.ctx, c.ID+1, model.MustDate("2024-05-01"), model.AttendancePresent, "")
	require.NoError(t, err)
	assert.Empty(t, marks)
}

// Order placement

func TestPlaceOrder_DecrementsStockAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	laptop := f.product("Laptop", 1000, 3)
	alice := f.user("alice")

	order, err := f.actions.PlaceOrder(f.ctx, alice.ID, "서울", []Line{{ProductID: laptop.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1000.0, order.Items[0].PriceAtPurchase)
	assert.Equal(t, 1, f.stock(laptop.ID))

	// Second placement cannot be filled.
	_, err = f.actions.PlaceOrder(f.ctx, alice.ID, "서울", []Line{{ProductID: laptop.ID, Quantity: 2}})
	require.True(t, store.IsInsufficientStock(err), "got %v", err)
	assert.Equal(t, 1, f.stock(laptop.ID))
	assert.Equal(t, 1, f.count("orders"))
	assert.Equal(t, 1, f.count("order_items"))

	// A later price change does not touch the stored order.
	laptop.Price = 1500
	require.NoError(t, f.repos.Products.Update(f.ctx, &laptop))
	stored, found, err := f.q.Order(f.ctx, order.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, order, stored)
	assert.Equal(t, stats.OrderTotal(stored), stats.ItemsTotal(stored.Items))
}

func TestPlaceOrder_MultipleLines(t *testing.T) {
	f := newFixture(t)
	laptop := f.product("Laptop", 1000, 3)
	mouse := f.product("Mouse", 20, 10)
	alice := f.user("alice")

	order, err := f.actions.PlaceOrder(f.ctx, alice.ID, "서울", []Line{
		{ProductID: mouse.ID, Quantity: 2},
		{ProductID: laptop.ID, Quantity: 1},
		{ProductID: mouse.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1100.0, order.TotalAmount)
	assert.Equal(t, stats.ItemsTotal(order.Items), order.TotalAmount)
	assert.Len(t, order.Items, 3)
	assert.Equal(t, 2, f.stock(laptop.ID))
	assert.Equal(t, 5, f.stock(mouse.ID))

	orders, err := f.q.OrdersByUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Order{order}, orders)
}

func TestPlaceOrder_CombinedQuantityIsChecked(t *testing.T) {
	f := newFixture(t)
	mouse := f.product("Mouse", 20, 4)
	alice := f.user("alice")

	_, err := f.actions.PlaceOrder(f.ctx, alice.ID, "서울", []Line{
		{ProductID: mouse.ID, Quantity: 3},
		{ProductID: mouse.ID, Quantity: 2},
	})
	assert.True(t, store.IsInsufficientStock(err), "got %v", err)
	assert.Equal(t, 4, f.stock(mouse.ID))
}

func TestPlaceOrder_FailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	laptop := f.product("Laptop", 1000, 3)

	_, err := f.actions.PlaceOrder(f.ctx, 999, "서울", []Line{{ProductID: laptop.ID, Quantity: 1}})
	assert.True(t, store.IsConstraint(err), "got %v", err)
	assert.Equal(t, 3, f.stock(laptop.ID))
	assert.Equal(t, 0, f.count("orders"))

	alice := f.user("alice")
	_, err = f.actions.PlaceOrder(f.ctx, alice.ID, "서울", []Line{{ProductID: 999, Quantity: 1}})
	assert.True(t, store.IsNotFound(err), "got %v", err)

	_, err = f.actions.PlaceOrder(f.ctx, alice.ID, "서울", nil)
	assert.True(t, store.IsValidation(err), "got %v", err)

	_, err = f.actions.PlaceOrder(f.ctx, alice.ID, "서울", []Line{{ProductID: laptop.ID, Quantity: 0}})
	assert.True(t, store.IsValidation(err), "got %v", err)

	_, err = f.actions.PlaceOrder(f.ctx, alice.ID, "", []Line{{ProductID: laptop.ID, Quantity: 1}})
	assert.True(t, store.IsValidation(err), "got %v", err)
	assert.Equal(t, 3, f.stock(laptop.ID))
}

func TestPreviewCartAndRestock(t *testing.T) {
	f := newFixture(t)
	laptop := f.product("Laptop", 1000, 1)
	mouse := f.product("Mouse", 20, 0)

	lines, total, err := f.actions.PreviewCart(f.ctx, []Line{
		{ProductID: laptop.ID, Quantity: 2},
		{ProductID: mouse.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2020.0, total)
	assert.Equal(t, "Mouse", lines[1].Name)
	assert.Equal(t, 1, f.stock(laptop.ID), "preview writes nothing")

	p, err := f.actions.Restock(f.ctx, mouse.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	assert.True(t, p.Available())

	_, err = f.actions.Restock(f.ctx, mouse.ID, -6)
	assert.True(t, store.IsInsufficientStock(err), "got %v", err)
	assert.Equal(t, 5, f.stock(mouse.ID))

	_, err = f.actions.Restock(f.ctx, 999, 1)
	assert.True(t, store.IsNotFound(err), "got %v", err)
}

// Cascade delete

func TestDeleteUserCascade(t *testing.T) {
	f := newFixture(t)
	u := f.user("alice")
	other := f.user("bob")

	p := model.Post{Title: "hello", Content: "world", UserID: u.ID}
	f.added(f.repos.Posts.Add(f.ctx, &p))
	own := model.Comment{Content: "mine", PostID: p.ID, UserID: u.ID}
	f.added(f.repos.Comments.Add(f.ctx, &own))
	reply := model.Comment{Content: "reply", PostID: p.ID, UserID: other.ID}
	f.added(f.repos.Comments.Add(f.ctx, &reply))

	bobsPost := model.Post{Title: "bob", Content: "b", UserID: other.ID}
	f.added(f.repos.Posts.Add(f.ctx, &bobsPost))
	onBob := model.Comment{Content: "hi bob", PostID: bobsPost.ID, UserID: u.ID}
	f.added(f.repos.Comments.Add(f.ctx, &onBob))

	laptop := f.product("Laptop", 1000, 3)
	_, err := f.actions.PlaceOrder(f.ctx, u.ID, "서울", []Line{{ProductID: laptop.ID, Quantity: 1}})
	require.NoError(t, err)
	rv := model.Review{UserID: u.ID, ProductID: laptop.ID, Rating: 4}
	f.added(f.repos.Reviews.Add(f.ctx, &rv))
	task := model.Task{Title: "t", DueDate: model.MustDate("2024-06-01"), UserID: u.ID}
	f.added(f.repos.Tasks.Add(f.ctx, &task))
	onOwnTask := model.TaskComment{Content: "progress?", TaskID: task.ID, UserID: other.ID}
	f.added(f.repos.TaskComments.Add(f.ctx, &onOwnTask))
	bobsTask := model.Task{Title: "bob's", DueDate: model.MustDate("2024-06-01"), UserID: other.ID}
	f.added(f.repos.Tasks.Add(f.ctx, &bobsTask))
	onBobsTask := model.TaskComment{Content: "done soon", TaskID: bobsTask.ID, UserID: u.ID}
	f.added(f.repos.TaskComments.Add(f.ctx, &onBobsTask))
	keep := model.TaskComment{Content: "note", TaskID: bobsTask.ID, UserID: other.ID}
	f.added(f.repos.TaskComments.Add(f.ctx, &keep))

	// Plain delete is restricted.
	err = f.repos.Users.Delete(f.ctx, u.ID)
	require.True(t, store.IsConstraint(err), "got %v", err)

	report, err := f.actions.DeleteUserCascade(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, CascadeReport{
		"comments": 3, "posts": 1, "order_items": 1, "orders": 1,
		"reviews": 1, "task_comments": 2, "tasks": 1, "users": 1,
	}, report)

	for _, check := range []func() (bool, error){
		func() (bool, error) { _, ok, err := f.repos.Users.Get(f.ctx, u.ID); return ok, err },
		func() (bool, error) { _, ok, err := f.repos.Posts.Get(f.ctx, p.ID); return ok, err },
		func() (bool, error) { _, ok, err := f.repos.Comments.Get(f.ctx, own.ID); return ok, err },
		func() (bool, error) { _, ok, err := f.repos.Comments.Get(f.ctx, reply.ID); return ok, err },
		func() (bool, error) { _, ok, err := f.repos.TaskComments.Get(f.ctx, onOwnTask.ID); return ok, err },
		func() (bool, error) { _, ok, err := f.repos.TaskComments.Get(f.ctx, onBobsTask.ID); return ok, err },
	} {
		found, err := check()
		require.NoError(t, err)
		assert.False(t, found)
	}
	posts, err := f.q.PostsByUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)

	// Bob and his post survive, as does his task with his own note.
	_, found, err := f.repos.Posts.Get(f.ctx, bobsPost.ID)
	require.NoError(t, err)
	assert.True(t, found)
	thread, err := f.q.CommentsOnTask(f.ctx, bobsTask.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.TaskComment{keep}, thread)

	// Nothing comes back after reopening the file.
	require.NoError(t, f.store.Close())
	s2, err := store.Open(f.path)
	require.NoError(t, err)
	defer s2.Close()
	rows, err := s2.Query(f.ctx, "SELECT id FROM users WHERE id = ?", u.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	rows, err = s2.Query(f.ctx, "SELECT id FROM posts WHERE user_id = ?", u.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	rows, err = s2.Query(f.ctx, "SELECT id FROM comments WHERE user_id = ? OR post_id = ?", u.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteUserCascade_MissingUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.actions.DeleteUserCascade(f.ctx, 42)
	assert.True(t, store.IsNotFound(err), "got %v", err)
}

// Tasks

func TestMoveTask(t *testing.T) {
	f := newFixture(t)
	u := f.user("alice")
	task := model.Task{Title: "t", DueDate: model.MustDate("2024-06-01"), UserID: u.ID}
	f.added(f.repos.Tasks.Add(f.ctx, &task))

	moved, err := f.actions.MoveTask(f.ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, moved.Status)
	assert.True(t, moved.UpdatedAt.After(task.UpdatedAt))

	_, err = f.actions.MoveTask(f.ctx, task.ID, "archived")
	assert.True(t, store.IsInvalidTransition(err), "got %v", err)
	got, _, err := f.repos.Tasks.Get(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, got.Status)

	_, err = f.actions.MoveTask(f.ctx, 999, model.TaskDone)
	assert.True(t, store.IsNotFound(err), "got %v", err)
}

func TestMoveTask_SameStatusIsRejected(t *testing.T) {
	f := newFixture(t)
	u := f.user("alice")
	task := model.Task{Title: "t", DueDate: model.MustDate("2024-06-01"), UserID: u.ID}
	f.added(f.repos.Tasks.Add(f.ctx, &task))

	_, err := f.actions.MoveTask(f.ctx, task.ID, model.TaskTodo)
	assert.True(t, store.IsInvalidTransition(err), "got %v", err)
	got, _, err := f.repos.Tasks.Get(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.UpdatedAt, got.UpdatedAt)

	// A plain field edit keeps the status and still goes through Update.
	got.Title = "renamed"
	require.NoError(t, f.repos.Tasks.Update(f.ctx, &got))
	assert.Equal(t, model.TaskTodo, got.Status)
}

func TestPlaceOrderInTx(t *testing.T) {
	f := newFixture(t)
	laptop := f.product("Laptop", 1000, 3)
	alice := f.user("alice")
	lines := []Line{{ProductID: laptop.ID, Quantity: 1}}

	_, err := f.actions.PlaceOrderInTx(f.ctx, alice.ID, "서울", lines)
	assert.ErrorIs(t, err, errNoTransaction)

	var orders []model.Order
	err = f.store.Transaction(f.ctx, func(ctx context.Context) error {
		for i := 0; i < 2; i++ {
			o, err := f.actions.PlaceOrderInTx(ctx, alice.ID, "서울", lines)
			if err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 1, f.stock(laptop.ID))
}
