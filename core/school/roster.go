package school

import "context"

// Roster is the read-only view of the school's records the auth core and the API consume.
type Roster interface {
	QueryStudents(ctx context.Context) ([]Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	QueryCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	QueryTeachers(ctx context.Context) ([]Teacher, error)
	QueryEvents(ctx context.Context) ([]CalendarEvent, error)
}

// FindCourse returns the course with the given id from courses.
func FindCourse(courses []Course, id string) (Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}
