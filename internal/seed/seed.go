// Package seed loads YAML datasets into a record store.
//
// A dataset names each row it may need to refer to with a key, and later
// rows refer to it by that key instead of by id:
//
//	classes:
//	  - key: 1-1
//	    name: 1반
//	    grade: 1
//	    teacher: 김선생
//	    room_number: "101"
//	students:
//	  - key: hong
//	    name: 홍길동
//	    student_id: "20230001"
//	    birth_date: 2008-03-01
//	    class: 1-1
//
// Apply writes a whole dataset in one transaction: either every row lands
// or none does.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recordstore/internal/action"
	"github.com/roach88/recordstore/internal/core"
	"github.com/roach88/recordstore/internal/model"
)

// Dataset is a set of rows to load, in dependency order.
type Dataset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Users        []User        `yaml:"users,omitempty"`
	Classes      []Class       `yaml:"classes,omitempty"`
	Students     []Student     `yaml:"students,omitempty"`
	Grades       []Grade       `yaml:"grades,omitempty"`
	Attendance   []Attendance  `yaml:"attendance,omitempty"`
	Posts        []Post        `yaml:"posts,omitempty"`
	Comments     []Comment     `yaml:"comments,omitempty"`
	Tasks        []Task        `yaml:"tasks,omitempty"`
	TaskComments []TaskComment `yaml:"task_comments,omitempty"`
	Categories   []Category    `yaml:"categories,omitempty"`
	Products     []Product     `yaml:"products,omitempty"`
	Orders       []Order       `yaml:"orders,omitempty"`
	Reviews      []Review      `yaml:"reviews,omitempty"`
}

// User is registered with a plain password, hashed on the way in.
type User struct {
	Key      string `yaml:"key"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin,omitempty"`
}

type Class struct {
	Key        string `yaml:"key"`
	Name       string `yaml:"name"`
	Grade      int    `yaml:"grade"`
	Teacher    string `yaml:"teacher"`
	RoomNumber string `yaml:"room_number"`
}

type Student struct {
	Key       string     `yaml:"key"`
	Name      string     `yaml:"name"`
	StudentNo string     `yaml:"student_id"`
	BirthDate model.Date `yaml:"birth_date"`
	Class     string     `yaml:"class"`
	Phone     string     `yaml:"phone,omitempty"`
	Address   string     `yaml:"address,omitempty"`
}

type Grade struct {
	Student  string     `yaml:"student"`
	Subject  string     `yaml:"subject"`
	Score    float64    `yaml:"score"`
	Semester int        `yaml:"semester"`
	ExamDate model.Date `yaml:"exam_date"`
}

type Attendance struct {
	Student string                 `yaml:"student"`
	Date    model.Date             `yaml:"date"`
	Status  model.AttendanceStatus `yaml:"status"`
	Reason  string                 `yaml:"reason,omitempty"`
}

type Post struct {
	Key     string `yaml:"key"`
	Title   string `yaml:"title"`
	Content string `yaml:"content,omitempty"`
	User    string `yaml:"user"`
}

type Comment struct {
	Content string `yaml:"content"`
	Post    string `yaml:"post"`
	User    string `yaml:"user"`
}

// Task starts in todo. A different Status is reached by a move after
// insertion, so it must be a permitted transition from todo. Key is only
// needed when task comments refer to the task.
type Task struct {
	Key         string           `yaml:"key,omitempty"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description,omitempty"`
	Status      model.TaskStatus `yaml:"status,omitempty"`
	Priority    model.Priority   `yaml:"priority,omitempty"`
	DueDate     model.Date       `yaml:"due_date"`
	User        string           `yaml:"user"`
}

type TaskComment struct {
	Content string `yaml:"content"`
	Task    string `yaml:"task"`
	User    string `yaml:"user"`
}

type Category struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type Product struct {
	Key         string  `yaml:"key"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Price       float64 `yaml:"price"`
	Stock       int     `yaml:"stock"`
	Category    string  `yaml:"category,omitempty"`
}

// Order is placed like any other order: stock is checked and decremented
// and prices are taken from the products as loaded.
type Order struct {
	User            string      `yaml:"user"`
	ShippingAddress string      `yaml:"shipping_address"`
	Items           []OrderLine `yaml:"items"`
}

type OrderLine struct {
	Product  string `yaml:"product"`
	Quantity int    `yaml:"quantity"`
}

type Review struct {
	User    string `yaml:"user"`
	Product string `yaml:"product"`
	Rating  int    `yaml:"rating"`
	Comment string `yaml:"comment,omitempty"`
}

// Load reads and parses a dataset file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a dataset. Unknown fields are rejected so that a typo
// ("studnets:") fails loudly instead of loading nothing.
func Parse(r io.Reader) (*Dataset, error) {
	var ds Dataset
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateDataset(&ds); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	return &ds, nil
}

// validateDataset checks names and keys. Field values are left to the
// repositories, which report them with the entity and field involved.
func validateDataset(ds *Dataset) error {
	if ds.Name == "" {
		return fmt.Errorf("name is required")
	}

	type keyed struct {
		kind string
		keys []string
	}
	var all []keyed
	add := func(kind string, n int, key func(int) string) {
		k := keyed{kind: kind}
		for i := 0; i < n; i++ {
			k.keys = append(k.keys, key(i))
		}
		all = append(all, k)
	}
	add("users", len(ds.Users), func(i int) string { return ds.Users[i].Key })
	add("classes", len(ds.Classes), func(i int) string { return ds.Classes[i].Key })
	add("students", len(ds.Students), func(i int) string { return ds.Students[i].Key })
	add("posts", len(ds.Posts), func(i int) string { return ds.Posts[i].Key })
	add("categories", len(ds.Categories), func(i int) string { return ds.Categories[i].Key })
	add("products", len(ds.Products), func(i int) string { return ds.Products[i].Key })

	for _, k := range all {
		seen := make(map[string]bool, len(k.keys))
		for i, key := range k.keys {
			if key == "" {
				return fmt.Errorf("%s[%d]: key is required", k.kind, i)
			}
			if seen[key] {
				return fmt.Errorf("%s[%d]: duplicate key %q", k.kind, i, key)
			}
			seen[key] = true
		}
	}

	taskKeys := make(map[string]bool, len(ds.Tasks))
	for i, t := range ds.Tasks {
		if t.Key == "" {
			continue
		}
		if taskKeys[t.Key] {
			return fmt.Errorf("tasks[%d]: duplicate key %q", i, t.Key)
		}
		taskKeys[t.Key] = true
	}

	for i, o := range ds.Orders {
		if len(o.Items) == 0 {
			return fmt.Errorf("orders[%d]: items list is required and must be non-empty", i)
		}
	}
	return nil
}

// Summary counts the rows Apply wrote, by table.
type Summary map[string]int

// Total is the number of rows written across all tables.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Apply writes ds into db in a single transaction.
func Apply(ctx context.Context, db *core.Store, ds *Dataset) (Summary, error) {
	var sum Summary
	err := db.Transaction(ctx, func(ctx context.Context) error {
		l := &loader{db: db, refs: make(map[string]map[string]int64), sum: Summary{}}
		if err := l.load(ctx, ds); err != nil {
			return err
		}
		sum = l.sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

type loader struct {
	db   *core.Store
	refs map[string]map[string]int64
	sum  Summary
}

func (l *loader) bind(kind, key string, id int64) {
	if l.refs[kind] == nil {
		l.refs[kind] = make(map[string]int64)
	}
	l.refs[kind][key] = id
	l.sum[kind]++
}

// ref resolves a key to an id. An empty key resolves to 0 when optional.
func (l *loader) ref(kind, key string, optional bool) (int64, error) {
	if key == "" && optional {
		return 0, nil
	}
	id, ok := l.refs[kind][key]
	if !ok {
		return 0, fmt.Errorf("unknown %s key %q", kind, key)
	}
	return id, nil
}

func at(kind string, i int, err error) error {
	return fmt.Errorf("%s[%d]: %w", kind, i, err)
}

func (l *loader) load(ctx context.Context, ds *Dataset) error {
	steps := []func(context.Context, *Dataset) error{
		l.users, l.classes, l.students, l.grades, l.attendance,
		l.posts, l.comments, l.tasks, l.taskComments,
		l.categories, l.products, l.orders, l.reviews,
	}
	for _, step := range steps {
		if err := step(ctx, ds); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) users(ctx context.Context, ds *Dataset) error {
	for i, u := range ds.Users {
		rec, err := l.db.Users.Register(ctx, u.Username, u.Email, u.Password, u.Admin)
		if err != nil {
			return at("users", i, err)
		}
		l.bind("users", u.Key, rec.ID)
	}
	return nil
}

func (l *loader) classes(ctx context.Context, ds *Dataset) error {
	for i, c := range ds.Classes {
		rec := model.Class{Name: c.Name, Grade: c.Grade, Teacher: c.Teacher, RoomNumber: c.RoomNumber}
		id, err := l.db.Classes.Add(ctx, &rec)
		if err != nil {
			return at("classes", i, err)
		}
		l.bind("classes", c.Key, id)
	}
	return nil
}

func (l *loader) students(ctx context.Context, ds *Dataset) error {
	for i, s := range ds.Students {
		classID, err := l.ref("classes", s.Class, false)
		if err != nil {
			return at("students", i, err)
		}
		rec := model.Student{
			Name:      s.Name,
			StudentNo: s.StudentNo,
			BirthDate: s.BirthDate,
			ClassID:   classID,
			Phone:     s.Phone,
			Address:   s.Address,
		}
		id, err := l.db.Students.Add(ctx, &rec)
		if err != nil {
			return at("students", i, err)
		}
		l.bind("students", s.Key, id)
	}
	return nil
}

func (l *loader) grades(ctx context.Context, ds *Dataset) error {
	for i, g := range ds.Grades {
		studentID, err := l.ref("students", g.Student, false)
		if err != nil {
			return at("grades", i, err)
		}
		rec := model.Grade{StudentID: studentID, Subject: g.Subject, Score: g.Score, Semester: g.Semester, ExamDate: g.ExamDate}
		if _, err := l.db.Grades.Add(ctx, &rec); err != nil {
			return at("grades", i, err)
		}
		l.sum["grades"]++
	}
	return nil
}

func (l *loader) attendance(ctx context.Context, ds *Dataset) error {
	for i, a := range ds.Attendance {
		studentID, err := l.ref("students", a.Student, false)
		if err != nil {
			return at("attendance", i, err)
		}
		rec := model.Attendance{StudentID: studentID, Date: a.Date, Status: a.Status, Reason: a.Reason}
		if _, err := l.db.Attendance.Add(ctx, &rec); err != nil {
			return at("attendance", i, err)
		}
		l.sum["attendance"]++
	}
	return nil
}

func (l *loader) posts(ctx context.Context, ds *Dataset) error {
	for i, p := range ds.Posts {
		userID, err := l.ref("users", p.User, false)
		if err != nil {
			return at("posts", i, err)
		}
		rec := model.Post{Title: p.Title, Content: p.Content, UserID: userID}
		id, err := l.db.Posts.Add(ctx, &rec)
		if err != nil {
			return at("posts", i, err)
		}
		l.bind("posts", p.Key, id)
	}
	return nil
}

func (l *loader) comments(ctx context.Context, ds *Dataset) error {
	for i, c := range ds.Comments {
		postID, err := l.ref("posts", c.Post, false)
		if err != nil {
			return at("comments", i, err)
		}
		userID, err := l.ref("users", c.User, false)
		if err != nil {
			return at("comments", i, err)
		}
		rec := model.Comment{Content: c.Content, PostID: postID, UserID: userID}
		if _, err := l.db.Comments.Add(ctx, &rec); err != nil {
			return at("comments", i, err)
		}
		l.sum["comments"]++
	}
	return nil
}

func (l *loader) tasks(ctx context.Context, ds *Dataset) error {
	for i, t := range ds.Tasks {
		userID, err := l.ref("users", t.User, false)
		if err != nil {
			return at("tasks", i, err)
		}
		rec := model.Task{Title: t.Title, Description: t.Description, Priority: t.Priority, DueDate: t.DueDate, UserID: userID}
		id, err := l.db.Tasks.Add(ctx, &rec)
		if err != nil {
			return at("tasks", i, err)
		}
		if t.Status != "" && t.Status != rec.Status {
			rec.Status = t.Status
			if err := l.db.Tasks.Update(ctx, &rec); err != nil {
				return at("tasks", i, err)
			}
		}
		if t.Key != "" {
			l.bind("tasks", t.Key, id)
		} else {
			l.sum["tasks"]++
		}
	}
	return nil
}

func (l *loader) taskComments(ctx context.Context, ds *Dataset) error {
	for i, c := range ds.TaskComments {
		taskID, err := l.ref("tasks", c.Task, false)
		if err != nil {
			return at("task_comments", i, err)
		}
		userID, err := l.ref("users", c.User, false)
		if err != nil {
			return at("task_comments", i, err)
		}
		rec := model.TaskComment{Content: c.Content, TaskID: taskID, UserID: userID}
		if _, err := l.db.TaskComments.Add(ctx, &rec); err != nil {
			return at("task_comments", i, err)
		}
		l.sum["task_comments"]++
	}
	return nil
}

func (l *loader) categories(ctx context.Context, ds *Dataset) error {
	for i, c := range ds.Categories {
		rec := model.Category{Name: c.Name, Description: c.Description}
		id, err := l.db.Categories.Add(ctx, &rec)
		if err != nil {
			return at("categories", i, err)
		}
		l.bind("categories", c.Key, id)
	}
	return nil
}

func (l *loader) products(ctx context.Context, ds *Dataset) error {
	for i, p := range ds.Products {
		categoryID, err := l.ref("categories", p.Category, true)
		if err != nil {
			return at("products", i, err)
		}
		rec := model.Product{Name: p.Name, Description: p.Description, Price: p.Price, Stock: p.Stock, CategoryID: categoryID}
		id, err := l.db.Products.Add(ctx, &rec)
		if err != nil {
			return at("products", i, err)
		}
		l.bind("products", p.Key, id)
	}
	return nil
}

func (l *loader) orders(ctx context.Context, ds *Dataset) error {
	for i, o := range ds.Orders {
		userID, err := l.ref("users", o.User, false)
		if err != nil {
			return at("orders", i, err)
		}
		lines := make([]action.Line, len(o.Items))
		for j, it := range o.Items {
			productID, err := l.ref("products", it.Product, false)
			if err != nil {
				return at("orders", i, err)
			}
			lines[j] = action.Line{ProductID: productID, Quantity: it.Quantity}
		}
		placed, err := l.db.Actions.PlaceOrderInTx(ctx, userID, o.ShippingAddress, lines)
		if err != nil {
			return at("orders", i, err)
		}
		l.sum["orders"]++
		l.sum["order_items"] += len(placed.Items)
	}
	return nil
}

func (l *loader) reviews(ctx context.Context, ds *Dataset) error {
	for i, r := range ds.Reviews {
		userID, err := l.ref("users", r.User, false)
		if err != nil {
			return at("reviews", i, err)
		}
		productID, err := l.ref("products", r.Product, false)
		if err != nil {
			return at("reviews", i, err)
		}
		rec := model.Review{UserID: userID, ProductID: productID, Rating: r.Rating, Comment: r.Comment}
		if _, err := l.db.Reviews.Add(ctx, &rec); err != nil {
			return at("reviews", i, err)
		}
		l.sum["reviews"]++
	}
	return nil
}
