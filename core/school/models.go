package school

import (
	"errors"
	"time"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrInvalidPayment  = errors.New("invalid payment status")
)

type PaymentStatus string

// Payment statuses, valued as shown to users.
const (
	PaymentPaid    PaymentStatus = "Pago"
	PaymentPending PaymentStatus = "Pendente"
	PaymentOverdue PaymentStatus = "Vencido"
)

var PaymentStatuses = []PaymentStatus{PaymentPaid, PaymentPending, PaymentOverdue}

func (p PaymentStatus) Valid() bool {
	for _, s := range PaymentStatuses {
		if p == s {
			return true
		}
	}
	return false
}

type EventType string

const (
	EventExam    EventType = "exam"
	EventHoliday EventType = "holiday"
	EventMeeting EventType = "meeting"
	EventOther   EventType = "other"
)

type Course struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Duration          string  `json:"duration"`
	TuitionFee        float64 `json:"tuition_fee"`
	WhatsappGroupLink string  `json:"whatsapp_group_link,omitempty"`
}

type AcademicRecord struct {
	Subject      string   `json:"subject"`
	Grade1       *float64 `json:"grade1,omitempty"`
	Grade2       *float64 `json:"grade2,omitempty"`
	Attendance   float64  `json:"attendance"`
	Observations string   `json:"observations,omitempty"`
}

type Student struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	DOB              string           `json:"dob"` // YYYY-MM-DD
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	EnrolledCourseID string           `json:"enrolled_course_id"`
	PaymentStatus    PaymentStatus    `json:"payment_status"`
	GuardianName     string           `json:"guardian_name"`
	GuardianCPF      string           `json:"guardian_cpf"`
	AcademicRecords  []AcademicRecord `json:"academic_records,omitempty"`
}

type Teacher struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	DOB     string `json:"dob"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Description string    `json:"description,omitempty"`
	Type        EventType `json:"type"`
}

// Day parses Date; the zero time is returned for malformed dates.
func (e CalendarEvent) Day() time.Time {
	d, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.Time{}
	}
	return d
}
