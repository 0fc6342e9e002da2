package model

// Class is a school class (homeroom), not a programming construct.
type Class struct {
	ID         int64  `json:"id"`
	Name       string `json:"name" validate:"required"`
	Grade      int    `json:"grade" validate:"min=1"`
	Teacher    string `json:"teacher" validate:"required"`
	RoomNumber string `json:"room_number" validate:"required"`
}

// ClassColumns is the column order of the classes table.
var ClassColumns = []string{"id", "name", "grade", "teacher", "room_number"}

func (c Class) PrimaryKey() int64 { return c.ID }

func (c Class) ToRow() Row {
	return Row{c.ID, c.Name, int64(c.Grade), c.Teacher, c.RoomNumber}
}

// ClassFromRow decodes a classes row.
func ClassFromRow(row Row) (Class, error) {
	r := newRowReader("class", ClassColumns, row)
	c := Class{
		ID:         r.int64(),
		Name:       r.string(),
		Grade:      r.int(),
		Teacher:    r.string(),
		RoomNumber: r.string(),
	}
	return c, r.err
}

// Student is an enrolled person. StudentNo is the external school
// identifier (the student_id column); ID is the row key.
type Student struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" validate:"required"`
	StudentNo string `json:"student_id" validate:"required"`
	BirthDate Date   `json:"birth_date" validate:"required"`
	ClassID   int64  `json:"class_id" validate:"required"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// StudentColumns is the column order of the students table.
var StudentColumns = []string{"id", "name", "student_id", "birth_date", "class_id", "phone", "address"}

func (s Student) PrimaryKey() int64 { return s.ID }

func (s Student) ToRow() Row {
	return Row{
		s.ID,
		s.Name,
		s.StudentNo,
		encodeDate(s.BirthDate),
		s.ClassID,
		encodeOptional(s.Phone),
		encodeOptional(s.Address),
	}
}

// StudentFromRow decodes a students row.
func StudentFromRow(row Row) (Student, error) {
	r := newRowReader("student", StudentColumns, row)
	s := Student{
		ID:        r.int64(),
		Name:      r.string(),
		StudentNo: r.string(),
		BirthDate: r.date(),
		ClassID:   r.int64(),
		Phone:     r.string(),
		Address:   r.string(),
	}
	return s, r.err
}

// Grade is one exam score.
type Grade struct {
	ID        int64   `json:"id"`
	StudentID int64   `json:"student_id" validate:"required"`
	Subject   string  `json:"subject" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
	Semester  int     `json:"semester" validate:"min=1"`
	ExamDate  Date    `json:"exam_date" validate:"required"`
}

// GradeColumns is the column order of the grades table.
var GradeColumns = []string{"id", "student_id", "subject", "score", "semester", "exam_date"}

func (g Grade) PrimaryKey() int64 { return g.ID }

func (g Grade) ToRow() Row {
	return Row{g.ID, g.StudentID, g.Subject, g.Score, int64(g.Semester), encodeDate(g.ExamDate)}
}

// GradeFromRow decodes a grades row.
func GradeFromRow(row Row) (Grade, error) {
	r := newRowReader("grade", GradeColumns, row)
	g := Grade{
		ID:        r.int64(),
		StudentID: r.int64(),
		Subject:   r.string(),
		Score:     r.float(),
		Semester:  r.int(),
		ExamDate:  r.date(),
	}
	return g, r.err
}

// Attendance is one attendance mark for one student on one date.
type Attendance struct {
	ID        int64            `json:"id"`
	StudentID int64            `json:"student_id" validate:"required"`
	Date      Date             `json:"date" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"attendance_status"`
	Reason    string           `json:"reason,omitempty"`
}

// AttendanceColumns is the column order of the attendance table.
var AttendanceColumns = []string{"id", "student_id", "date", "status", "reason"}

func (a Attendance) PrimaryKey() int64 { return a.ID }

func (a Attendance) ToRow() Row {
	return Row{a.ID, a.StudentID, encodeDate(a.Date), string(a.Status), encodeOptional(a.Reason)}
}

// AttendanceFromRow decodes an attendance row.
func AttendanceFromRow(row Row) (Attendance, error) {
	r := newRowReader("attendance", AttendanceColumns, row)
	a := Attendance{
		ID:        r.int64(),
		StudentID: r.int64(),
		Date:      r.date(),
		Status:    AttendanceStatus(r.string()),
		Reason:    r.string(),
	}
	return a, r.err
}
