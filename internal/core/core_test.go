package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/action"
	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/query"
	"github.com/roach88/recordstore/internal/repo"
	"github.com/roach88/recordstore/internal/stats"
	"github.com/roach88/recordstore/internal/store"
	"github.com/roach88/recordstore/internal/testutil"
)

func testDeps() Deps {
	return Deps{
		Clock:  testutil.NewStepClock(time.Time{}),
		Hasher: collab.BcryptHasher{Cost: 4},
		IDs:    collab.NewFixedGenerator("task-0001", "task-0002", "task-0003"),
	}
}

func openTest(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.db")
	db, err := Open(path, testDeps())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestOpen_UnwritablePath(t *testing.T) {
	_, err := Open("/nonexistent/dir/records.db", Deps{})
	assert.True(t, store.IsStorageUnavailable(err), "got %v", err)
}

func TestScenario_ClassGradeStatistics(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()

	class := model.Class{Name: "1반", Grade: 1, Teacher: "김", RoomNumber: "101"}
	_, err := db.Classes.Add(ctx, &class)
	require.NoError(t, err)

	hong := model.Student{Name: "홍길동", StudentNo: "20230001", BirthDate: model.MustDate("2008-03-01"), ClassID: class.ID}
	kim := model.Student{Name: "김철수", StudentNo: "20230002", BirthDate: model.MustDate("2008-05-01"), ClassID: class.ID}
	_, err = db.Students.Add(ctx, &hong)
	require.NoError(t, err)
	_, err = db.Students.Add(ctx, &kim)
	require.NoError(t, err)

	for _, g := range []model.Grade{
		{StudentID: hong.ID, Subject: "수학", Score: 90, Semester: 1, ExamDate: model.MustDate("2024-04-01")},
		{StudentID: hong.ID, Subject: "수학", Score: 70, Semester: 2, ExamDate: model.MustDate("2024-09-01")},
		{StudentID: kim.ID, Subject: "수학", Score: 80, Semester: 1, ExamDate: model.MustDate("2024-04-01")},
	} {
		_, err := db.Grades.Add(ctx, &g)
		require.NoError(t, err)
	}

	st, err := db.Reports.ClassGradeStats(ctx, class.ID, query.GradeFilter{Semester: 1, Subject: "수학"})
	require.NoError(t, err)
	assert.Equal(t, stats.GradeStats{Count: 2, Mean: 85, Min: 80, Max: 90, StdDev: 5}, st)

	empty, err := db.Reports.ClassGradeStats(ctx, class.ID, query.GradeFilter{Semester: 3})
	require.NoError(t, err)
	assert.Equal(t, stats.GradeStats{}, empty)

	bySubject, err := db.Reports.SubjectStats(ctx, class.ID, 0)
	require.NoError(t, err)
	require.Len(t, bySubject, 1)
	assert.Equal(t, 3, bySubject[0].Count)
	assert.Equal(t, 80.0, bySubject[0].Mean)
}

func TestScenario_OrderPlacement(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()

	laptop := model.Product{Name: "Laptop", Price: 1000, Stock: 3}
	_, err := db.Products.Add(ctx, &laptop)
	require.NoError(t, err)
	alice, err := db.Users.Register(ctx, "alice", "alice@x.com", "pw", false)
	require.NoError(t, err)

	order, err := db.Actions.PlaceOrder(ctx, alice.ID, "서울", []action.Line{{ProductID: laptop.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, order.TotalAmount)

	_, err = db.Actions.PlaceOrder(ctx, alice.ID, "서울", []action.Line{{ProductID: laptop.ID, Quantity: 2}})
	assert.True(t, store.IsInsufficientStock(err), "got %v", err)

	got, _, err := db.Products.Get(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	orders, err := db.Queries.OrdersByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestScenario_UniqueEmail(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()

	_, err := db.Users.Register(ctx, "alice", "a@x.com", "pw", false)
	require.NoError(t, err)
	_, err = db.Users.Register(ctx, "alice2", "a@x.com", "pw", false)
	assert.True(t, store.IsConstraint(err), "got %v", err)

	users, err := db.Users.List(ctx, repo.Filter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestScenario_TaskTransition(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()
	u, err := db.Users.Register(ctx, "alice", "a@x.com", "pw", false)
	require.NoError(t, err)

	task := model.Task{Title: "report", Status: model.TaskTodo, DueDate: model.MustDate("2024-06-01"), UserID: u.ID}
	_, err = db.Tasks.Add(ctx, &task)
	require.NoError(t, err)
	assert.Equal(t, "task-0001", task.ExternalID)

	_, err = db.Actions.MoveTask(ctx, task.ID, model.TaskInProgress)
	require.NoError(t, err)
	_, err = db.Actions.MoveTask(ctx, task.ID, model.TaskTodo)
	require.NoError(t, err)
	_, err = db.Actions.MoveTask(ctx, task.ID, "archived")
	assert.True(t, store.IsInvalidTransition(err), "got %v", err)

	got, _, err := db.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskTodo, got.Status)
}

func TestTransaction_SpansRepositories(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transaction(ctx, func(ctx context.Context) error {
		c := model.Class{Name: "1반", Grade: 1, Teacher: "김", RoomNumber: "101"}
		if _, err := db.Classes.Add(ctx, &c); err != nil {
			return err
		}
		s := model.Student{Name: "홍길동", StudentNo: "20230001", BirthDate: model.MustDate("2008-03-01"), ClassID: c.ID}
		if _, err := db.Students.Add(ctx, &s); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	classes, err := db.Classes.List(ctx, repo.Filter{})
	require.NoError(t, err)
	assert.Empty(t, classes)
	students, err := db.Students.List(ctx, repo.Filter{})
	require.NoError(t, err)
	assert.Empty(t, students)

	err = db.Transaction(ctx, func(ctx context.Context) error {
		_, err := db.Actions.BulkAttendance(ctx, 1, model.MustDate("2024-05-01"), model.AttendancePresent, "")
		return err
	})
	assert.ErrorIs(t, err, store.ErrNestedTransaction)
}

func TestPersistence_EveryEntitySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()
	deps := testDeps()

	db, err := Open(path, deps)
	require.NoError(t, err)

	user, err := db.Users.Register(ctx, "alice", "a@x.com", "pw", true)
	require.NoError(t, err)
	class := model.Class{Name: "1반", Grade: 1, Teacher: "김", RoomNumber: "101"}
	_, err = db.Classes.Add(ctx, &class)
	require.NoError(t, err)
	student := model.Student{Name: "홍길동", StudentNo: "20230001", BirthDate: model.MustDate("2008-03-01"), ClassID: class.ID, Phone: "010-1234-5678", Address: "서울"}
	_, err = db.Students.Add(ctx, &student)
	require.NoError(t, err)
	grade := model.Grade{StudentID: student.ID, Subject: "수학", Score: 92.5, Semester: 1, ExamDate: model.MustDate("2024-04-01")}
	_, err = db.Grades.Add(ctx, &grade)
	require.NoError(t, err)
	mark := model.Attendance{StudentID: student.ID, Date: model.MustDate("2024-05-01"), Status: model.AttendanceLate, Reason: "버스"}
	_, err = db.Attendance.Add(ctx, &mark)
	require.NoError(t, err)
	post := model.Post{Title: "공지", Content: "내일 휴교", UserID: user.ID}
	_, err = db.Posts.Add(ctx, &post)
	require.NoError(t, err)
	comment := model.Comment{Content: "감사합니다", PostID: post.ID, UserID: user.ID}
	_, err = db.Comments.Add(ctx, &comment)
	require.NoError(t, err)
	task := model.Task{Title: "채점", Priority: model.PriorityHigh, DueDate: model.MustDate("2024-06-01"), UserID: user.ID}
	_, err = db.Tasks.Add(ctx, &task)
	require.NoError(t, err)
	category := model.Category{Name: "전자제품", Description: "가전"}
	_, err = db.Categories.Add(ctx, &category)
	require.NoError(t, err)
	product := model.Product{Name: "Laptop", Price: 1000, Stock: 3, CategoryID: category.ID}
	_, err = db.Products.Add(ctx, &product)
	require.NoError(t, err)
	order, err := db.Actions.PlaceOrder(ctx, user.ID, "서울", []action.Line{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)
	review := model.Review{UserID: user.ID, ProductID: product.ID, Rating: 5, Comment: "좋아요"}
	_, err = db.Reviews.Add(ctx, &review)
	require.NoError(t, err)
	product.Stock = 2
	require.NoError(t, db.Close())

	db2, err := Open(path, deps)
	require.NoError(t, err)
	defer db2.Close()

	assertStored(t, user, db2.Users.Get)
	assertStored(t, class, db2.Classes.Get)
	assertStored(t, student, db2.Students.Get)
	assertStored(t, grade, db2.Grades.Get)
	assertStored(t, mark, db2.Attendance.Get)
	assertStored(t, post, db2.Posts.Get)
	assertStored(t, comment, db2.Comments.Get)
	assertStored(t, task, db2.Tasks.Get)
	assertStored(t, category, db2.Categories.Get)
	assertStored(t, product, db2.Products.Get)
	assertStored(t, review, db2.Reviews.Get)

	gotOrder, found, err := db2.Queries.Order(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, order, gotOrder)

	_, ok, err := db2.Users.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func assertStored[T model.Record](t *testing.T, want T, get func(context.Context, int64) (T, bool, error)) {
	t.Helper()
	got, found, err := get(context.Background(), want.PrimaryKey())
	require.NoError(t, err)
	require.True(t, found, "%T %d missing", want, want.PrimaryKey())
	assert.Equal(t, want, got)
}

func TestReports_AttendanceTally(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()
	class := model.Class{Name: "1반", Grade: 1, Teacher: "김", RoomNumber: "101"}
	_, err := db.Classes.Add(ctx, &class)
	require.NoError(t, err)
	for i, no := range []string{"20230001", "20230002", "20230003"} {
		s := model.Student{Name: "학생", StudentNo: no, BirthDate: model.MustDate("2008-03-01"), ClassID: class.ID}
		_, err := db.Students.Add(ctx, &s)
		require.NoError(t, err)
		if i == 2 {
			continue // no mark for the third student
		}
		status := model.AttendancePresent
		if i == 1 {
			status = model.AttendanceAbsent
		}
		a := model.Attendance{StudentID: s.ID, Date: model.MustDate("2024-05-01"), Status: status}
		_, err = db.Attendance.Add(ctx, &a)
		require.NoError(t, err)
	}

	tally, err := db.Reports.ClassAttendanceTally(ctx, class.ID, model.MustDate("2024-05-01"))
	require.NoError(t, err)
	assert.Equal(t, stats.Tally{
		model.AttendancePresent:   1,
		model.AttendanceLate:      0,
		model.AttendanceLeftEarly: 0,
		model.AttendanceAbsent:    1,
	}, tally)
}
