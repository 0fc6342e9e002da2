package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/repo"
	"github.com/roach88/recordstore/internal/testutil"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	repos *repo.Set
	q     *Queries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.OpenStore(t)
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		repos: repo.NewSet(s, repo.Deps{Clock: testutil.NewStepClock(time.Time{})}),
		q:     New(s),
	}
}

// must unwraps a query result. Queries in these tests are expected to
// succeed; a failure aborts with the error.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// added fails the test when an Add did.
func (f *fixture) added(_ int64, err error) {
	f.t.Helper()
	require.NoError(f.t, err)
}

// schoolFixture builds two classes. Class A holds 홍길동 and 김철수 with
// three 수학 grades and one 영어 grade; class B holds 이영희 with one grade.
func schoolFixture(t *testing.T, f *fixture) (classA, classB model.Class, students []model.Student) {
	t.Helper()
	classA = model.Class{Name: "1반", Grade: 1, Teacher: "김", RoomNumber: "101"}
	classB = model.Class{Name: "2반", Grade: 1, Teacher: "박", RoomNumber: "102"}
	f.added(f.repos.Classes.Add(f.ctx, &classA))
	f.added(f.repos.Classes.Add(f.ctx, &classB))

	students = []model.Student{
		{Name: "홍길동", StudentNo: "20230001", BirthDate: model.MustDate("2008-03-01"), ClassID: classA.ID},
		{Name: "김철수", StudentNo: "20230002", BirthDate: model.MustDate("2008-05-01"), ClassID: classA.ID},
		{Name: "이영희", StudentNo: "20230003", BirthDate: model.MustDate("2008-07-01"), ClassID: classB.ID},
	}
	for i := range students {
		f.added(f.repos.Students.Add(f.ctx, &students[i]))
	}

	grades := []model.Grade{
		{StudentID: students[0].ID, Subject: "수학", Score: 90, Semester: 1, ExamDate: model.MustDate("2024-04-01")},
		{StudentID: students[0].ID, Subject: "수학", Score: 70, Semester: 2, ExamDate: model.MustDate("2024-09-01")},
		{StudentID: students[1].ID, Subject: "수학", Score: 80, Semester: 1, ExamDate: model.MustDate("2024-04-01")},
		{StudentID: students[1].ID, Subject: "영어", Score: 60, Semester: 1, ExamDate: model.MustDate("2024-04-02")},
		{StudentID: students[2].ID, Subject: "과학", Score: 100, Semester: 1, ExamDate: model.MustDate("2024-04-01")},
	}
	for i := range grades {
		f.added(f.repos.Grades.Add(f.ctx, &grades[i]))
	}
	return classA, classB, students
}

func scores(gs []model.Grade) []float64 {
	out := make([]float64, len(gs))
	for i, g := range gs {
		out[i] = g.Score
	}
	return out
}

func TestStudentsInClass(t *testing.T) {
	f := newFixture(t)
	a, b, _ := schoolFixture(t, f)

	inA := must(f.q.StudentsInClass(f.ctx, a.ID))
	require.Len(t, inA, 2)
	assert.Equal(t, "홍길동", inA[0].Name)
	assert.Equal(t, "김철수", inA[1].Name)

	inB := must(f.q.StudentsInClass(f.ctx, b.ID))
	assert.Len(t, inB, 1)

	none := must(f.q.StudentsInClass(f.ctx, 999))
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGradesForStudent(t *testing.T) {
	f := newFixture(t)
	_, _, students := schoolFixture(t, f)
	assert.Equal(t, []float64{90, 70}, scores(must(f.q.GradesForStudent(f.ctx, students[0].ID))))
}

func TestGradesForClass_Filters(t *testing.T) {
	f := newFixture(t)
	a, _, _ := schoolFixture(t, f)

	all := must(f.q.GradesForClass(f.ctx, a.ID, GradeFilter{}))
	assert.Equal(t, []float64{90, 70, 80, 60}, scores(all))

	sem1 := must(f.q.GradesForClass(f.ctx, a.ID, GradeFilter{Semester: 1}))
	assert.Equal(t, []float64{90, 80, 60}, scores(sem1))

	math1 := must(f.q.GradesForClass(f.ctx, a.ID, GradeFilter{Semester: 1, Subject: "수학"}))
	assert.Equal(t, []float64{90, 80}, scores(math1))

	math := must(f.q.GradesForClass(f.ctx, a.ID, GradeFilter{Subject: "수학"}))
	assert.Equal(t, []float64{90, 70, 80}, scores(math))
}

func TestSubjectsInClass_DistinctSorted(t *testing.T) {
	f := newFixture(t)
	a, b, _ := schoolFixture(t, f)

	assert.Equal(t, []string{"수학", "영어"}, must(f.q.SubjectsInClass(f.ctx, a.ID)))
	assert.Equal(t, []string{"과학"}, must(f.q.SubjectsInClass(f.ctx, b.ID)))
}

func TestAttendanceQueries(t *testing.T) {
	f := newFixture(t)
	a, _, students := schoolFixture(t, f)
	day := model.MustDate("2024-05-01")

	marks := []model.Attendance{
		{StudentID: students[0].ID, Date: day, Status: model.AttendancePresent},
		{StudentID: students[1].ID, Date: day, Status: model.AttendanceLate, Reason: "버스"},
		{StudentID: students[2].ID, Date: day, Status: model.AttendanceAbsent},
		{StudentID: students[0].ID, Date: model.MustDate("2024-05-02"), Status: model.AttendanceLeftEarly},
	}
	for i := range marks {
		f.added(f.repos.Attendance.Add(f.ctx, &marks[i]))
	}

	inClass := must(f.q.AttendanceForClass(f.ctx, a.ID, day))
	require.Len(t, inClass, 2)
	assert.Equal(t, marks[0], inClass[0])
	assert.Equal(t, marks[1], inClass[1])

	forStudent := must(f.q.AttendanceForStudent(f.ctx, students[0].ID))
	require.Len(t, forStudent, 2)
	assert.Equal(t, model.AttendanceLeftEarly, forStudent[1].Status)
}

func TestBlogQueries(t *testing.T) {
	f := newFixture(t)
	alice := model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	bob := model.User{Username: "bob", Email: "b@x.com", PasswordHash: "h"}
	f.added(f.repos.Users.Add(f.ctx, &alice))
	f.added(f.repos.Users.Add(f.ctx, &bob))

	p1 := model.Post{Title: "first", Content: "a", UserID: alice.ID}
	p2 := model.Post{Title: "second", Content: "b", UserID: alice.ID}
	p3 := model.Post{Title: "bob's", Content: "c", UserID: bob.ID}
	for _, p := range []*model.Post{&p1, &p2, &p3} {
		f.added(f.repos.Posts.Add(f.ctx, p))
	}
	c1 := model.Comment{Content: "nice", PostID: p1.ID, UserID: bob.ID}
	c2 := model.Comment{Content: "thanks", PostID: p1.ID, UserID: alice.ID}
	f.added(f.repos.Comments.Add(f.ctx, &c1))
	f.added(f.repos.Comments.Add(f.ctx, &c2))

	assert.Equal(t, []model.Post{p1, p2}, must(f.q.PostsByUser(f.ctx, alice.ID)))
	assert.Equal(t, []model.Comment{c1, c2}, must(f.q.CommentsOnPost(f.ctx, p1.ID)))
	assert.Empty(t, must(f.q.CommentsOnPost(f.ctx, p2.ID)))

	task := model.Task{Title: "t", DueDate: model.MustDate("2024-06-01"), UserID: bob.ID}
	f.added(f.repos.Tasks.Add(f.ctx, &task))
	assert.Equal(t, []model.Task{task}, must(f.q.TasksByUser(f.ctx, bob.ID)))
	assert.Empty(t, must(f.q.TasksByUser(f.ctx, alice.ID)))

	assert.Empty(t, must(f.q.CommentsOnTask(f.ctx, task.ID)))
	tc1 := model.TaskComment{Content: "started?", TaskID: task.ID, UserID: alice.ID}
	tc2 := model.TaskComment{Content: "yes", TaskID: task.ID, UserID: bob.ID}
	f.added(f.repos.TaskComments.Add(f.ctx, &tc1))
	f.added(f.repos.TaskComments.Add(f.ctx, &tc2))
	assert.Equal(t, []model.TaskComment{tc1, tc2}, must(f.q.CommentsOnTask(f.ctx, task.ID)))
	assert.Empty(t, must(f.q.CommentsOnTask(f.ctx, 999)))

	// Task threads and post threads do not mix.
	assert.Equal(t, []model.Comment{c1, c2}, must(f.q.CommentsOnPost(f.ctx, p1.ID)))
}

func TestShopQueries(t *testing.T) {
	f := newFixture(t)
	alice := model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	f.added(f.repos.Users.Add(f.ctx, &alice))

	cat := model.Category{Name: "전자제품"}
	f.added(f.repos.Categories.Add(f.ctx, &cat))
	laptop := model.Product{Name: "Laptop", Price: 1000, Stock: 3, CategoryID: cat.ID}
	mouse := model.Product{Name: "Mouse", Price: 20, Stock: 10}
	f.added(f.repos.Products.Add(f.ctx, &laptop))
	f.added(f.repos.Products.Add(f.ctx, &mouse))

	assert.Equal(t, []model.Product{laptop}, must(f.q.ProductsInCategory(f.ctx, cat.ID)))

	r1 := model.Review{UserID: alice.ID, ProductID: laptop.ID, Rating: 5, Comment: "좋아요"}
	f.added(f.repos.Reviews.Add(f.ctx, &r1))
	assert.Equal(t, []model.Review{r1}, must(f.q.ReviewsForProduct(f.ctx, laptop.ID)))
	assert.Equal(t, []model.Review{r1}, must(f.q.ReviewsByUser(f.ctx, alice.ID)))
	assert.Empty(t, must(f.q.ReviewsForProduct(f.ctx, mouse.ID)))
}

func TestOrdersByUser_MaterialisesItems(t *testing.T) {
	f := newFixture(t)
	alice := model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	f.added(f.repos.Users.Add(f.ctx, &alice))
	laptop := model.Product{Name: "Laptop", Price: 1000, Stock: 3}
	mouse := model.Product{Name: "Mouse", Price: 20, Stock: 10}
	f.added(f.repos.Products.Add(f.ctx, &laptop))
	f.added(f.repos.Products.Add(f.ctx, &mouse))

	first := model.Order{UserID: alice.ID, TotalAmount: 1040, ShippingAddress: "서울"}
	f.added(f.repos.Orders.Add(f.ctx, &first))
	items := []model.OrderItem{
		{OrderID: first.ID, ProductID: laptop.ID, Quantity: 1, PriceAtPurchase: 1000},
		{OrderID: first.ID, ProductID: mouse.ID, Quantity: 2, PriceAtPurchase: 20},
	}
	for i := range items {
		f.added(f.repos.OrderItems.Add(f.ctx, &items[i]))
	}
	empty := model.Order{UserID: alice.ID, TotalAmount: 0, ShippingAddress: "부산"}
	f.added(f.repos.Orders.Add(f.ctx, &empty))

	orders := must(f.q.OrdersByUser(f.ctx, alice.ID))
	require.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, items, orders[0].Items)
	assert.Equal(t, empty.ID, orders[1].ID)
	assert.NotNil(t, orders[1].Items)
	assert.Empty(t, orders[1].Items)

	one, found, err := f.q.Order(f.ctx, first.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, orders[0], one)

	_, found, err = f.q.Order(f.ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Empty(t, must(f.q.OrdersByUser(f.ctx, alice.ID+1)))
}
