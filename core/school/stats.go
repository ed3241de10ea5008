package school

import (
	"math"
	"sort"
)

type (
	DashboardStats struct {
		TotalStudents   int     `json:"total_students"`
		TotalCourses    int     `json:"total_courses"`
		MonthlyRevenue  float64 `json:"monthly_revenue"`
		OverduePayments int     `json:"overdue_payments"`
	}

	CourseEnrollment struct {
		CourseID   string  `json:"course_id"`
		CourseName string  `json:"course_name"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}

	Report struct {
		Enrollment     []CourseEnrollment `json:"enrollment"`
		TotalRevenue   float64            `json:"total_revenue"`
		PaidRevenue    float64            `json:"paid_revenue"`
		PaidPercentage float64            `json:"paid_percentage"`
		OverdueCount   int                `json:"overdue_count"`
	}

	FinancialSummary struct {
		Expected float64 `json:"expected"`
		Received float64 `json:"received"`
		Pending  float64 `json:"pending"`
		Overdue  float64 `json:"overdue"`
	}
)

// amounts are summed in cents so repeated tuition fees do not drift.
func toCents(v float64) int64   { return int64(math.Round(v * 100)) }
func fromCents(c int64) float64 { return float64(c) / 100 }
func percent(n, d float64) float64 {
	if d <= 0 {
		return 0
	}
	return n / d * 100
}

// tuition is the fee of the student's course, 0 when the course is unknown.
func tuition(s Student, courses []Course) int64 {
	if c, ok := FindCourse(courses, s.EnrolledCourseID); ok {
		return toCents(c.TuitionFee)
	}
	return 0
}

func Dashboard(students []Student, courses []Course) DashboardStats {
	stats := DashboardStats{TotalStudents: len(students), TotalCourses: len(courses)}
	var revenue int64
	for _, s := range students {
		switch s.PaymentStatus {
		case PaymentPaid:
			revenue += tuition(s, courses)
		case PaymentOverdue:
			stats.OverduePayments++
		}
	}
	stats.MonthlyRevenue = fromCents(revenue)
	return stats
}

func Reports(students []Student, courses []Course) Report {
	rep := Report{Enrollment: make([]CourseEnrollment, 0, len(courses))}
	for _, c := range courses {
		var count int
		for _, s := range students {
			if s.EnrolledCourseID == c.ID {
				count++
			}
		}
		rep.Enrollment = append(rep.Enrollment, CourseEnrollment{
			CourseID:   c.ID,
			CourseName: c.Name,
			Count:      count,
			Percentage: percent(float64(count), float64(len(students))),
		})
	}

	var total, paid int64
	for _, s := range students {
		fee := tuition(s, courses)
		total += fee
		switch s.PaymentStatus {
		case PaymentPaid:
			paid += fee
		case PaymentOverdue:
			rep.OverdueCount++
		}
	}
	rep.TotalRevenue = fromCents(total)
	rep.PaidRevenue = fromCents(paid)
	rep.PaidPercentage = percent(float64(paid), float64(total))
	return rep
}

// Financial splits the expected revenue by payment status; unknown statuses count as pending.
func Financial(students []Student, courses []Course) FinancialSummary {
	var expected, received, pending, overdue int64
	for _, s := range students {
		fee := tuition(s, courses)
		expected += fee
		switch s.PaymentStatus {
		case PaymentPaid:
			received += fee
		case PaymentOverdue:
			overdue += fee
		default:
			pending += fee
		}
	}
	return FinancialSummary{
		Expected: fromCents(expected),
		Received: fromCents(received),
		Pending:  fromCents(pending),
		Overdue:  fromCents(overdue),
	}
}

// UpcomingEvents returns the first n events by date. Events with the same date keep
// their roster order; undated events sort first.
func UpcomingEvents(events []CalendarEvent, n int) []CalendarEvent {
	sorted := make([]CalendarEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Day().Before(sorted[j].Day()) })
	if n < 0 || n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n:n]
}
