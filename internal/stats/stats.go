// Package stats computes derived statistics in process, over rows already
// fetched by relation queries, so results do not depend on the backend's
// arithmetic.
package stats

import (
	"math"

	"github.com/roach88/recordstore/internal/model"
)

// GradeStats summarises a set of scores. StdDev is the population
// standard deviation. Every field is 0 for an empty set.
type GradeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// Grades computes GradeStats over the scores of gs.
func Grades(gs []model.Grade) GradeStats {
	scores := make([]float64, len(gs))
	for i, g := range gs {
		scores[i] = g.Score
	}
	return Scores(scores)
}

// Scores computes GradeStats over raw scores.
func Scores(scores []float64) GradeStats {
	n := len(scores)
	if n == 0 {
		return GradeStats{}
	}

	st := GradeStats{Count: n, Min: scores[0], Max: scores[0]}
	var sum float64
	for _, s := range scores {
		sum += s
		st.Min = math.Min(st.Min, s)
		st.Max = math.Max(st.Max, s)
	}
	st.Mean = sum / float64(n)

	var sq float64
	for _, s := range scores {
		d := s - st.Mean
		sq += d * d
	}
	st.StdDev = math.Sqrt(sq / float64(n))

	// Rounding in the mean can push it a hair outside [min, max] when all
	// scores are equal.
	st.Mean = math.Min(math.Max(st.Mean, st.Min), st.Max)
	return st
}

// Tally counts attendance rows by status. Every status is present in the
// result, with zero when no row carries it. Rows with an unknown status
// are ignored.
type Tally map[model.AttendanceStatus]int

// TallyAttendance counts rows by status.
func TallyAttendance(rows []model.Attendance) Tally {
	t := make(Tally, len(model.AttendanceStatuses))
	for _, s := range model.AttendanceStatuses {
		t[s] = 0
	}
	for _, r := range rows {
		if r.Status.Valid() {
			t[r.Status]++
		}
	}
	return t
}

// Total returns the number of rows counted.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// CartLine is one product in a cart.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// CartTotal is the sum of every line's subtotal.
func CartTotal(lines []CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// OrderTotal is the total stored when the order was placed. It is never
// recomputed from current product prices.
func OrderTotal(o model.Order) float64 {
	return o.TotalAmount
}

// ItemsTotal recomputes an order's total from its snapshot prices. For an
// order placed by this store it equals OrderTotal.
func ItemsTotal(items []model.OrderItem) float64 {
	var total float64
	for _, i := range items {
		total += i.Subtotal()
	}
	return total
}
