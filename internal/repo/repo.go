package repo

import (
	"github.com/roach88/recordstore/internal/collab"
	"github.com/roach88/recordstore/internal/store"
)

// Deps are the collaborators repositories consume.
type Deps struct {
	Clock  collab.Clock
	Hasher collab.PasswordHasher
	IDs    collab.IDGenerator
}

// Set bundles one repository per entity kind over a shared store.
type Set struct {
	Users        *Users
	Classes      *Classes
	Students     *Students
	Grades       *Grades
	Attendance   *AttendanceRepo
	Posts        *Posts
	Comments     *Comments
	Tasks        *Tasks
	TaskComments *TaskComments
	Categories   *Categories
	Products     *Products
	Orders       *Orders
	OrderItems   *OrderItems
	Reviews      *Reviews
}

// NewSet wires every repository to s. Missing collaborators fall back to
// the system clock, bcrypt at default cost and UUIDv7 ids.
func NewSet(s *store.Store, d Deps) *Set {
	if d.Clock == nil {
		d.Clock = collab.SystemClock{}
	}
	if d.Hasher == nil {
		d.Hasher = collab.BcryptHasher{}
	}
	if d.IDs == nil {
		d.IDs = collab.UUIDv7Generator{}
	}
	return &Set{
		Users:        NewUsers(s, d.Clock, d.Hasher),
		Classes:      NewClasses(s),
		Students:     NewStudents(s),
		Grades:       NewGrades(s),
		Attendance:   NewAttendance(s),
		Posts:        NewPosts(s, d.Clock),
		Comments:     NewComments(s, d.Clock),
		Tasks:        NewTasks(s, d.Clock, d.IDs),
		TaskComments: NewTaskComments(s, d.Clock),
		Categories:   NewCategories(s),
		Products:     NewProducts(s, d.Clock),
		Orders:       NewOrders(s, d.Clock),
		OrderItems:   NewOrderItems(s),
		Reviews:      NewReviews(s, d.Clock),
	}
}
