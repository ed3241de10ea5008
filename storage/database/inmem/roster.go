package inmemdb

import (
	"context"

	"github.com/cebe/gestao/core/school"
)

type roster struct {
	db *schoolTables
}

func NewRoster(db *DB) school.Roster {
	return &roster{db: db.school}
}

func (r *roster) QueryStudents(_ context.Context) ([]school.Student, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return append([]school.Student(nil), r.db.students...), nil
}

func (r *roster) GetStudent(_ context.Context, id string) (school.Student, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	for _, s := range r.db.students {
		if s.ID == id {
			return s, nil
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (r *roster) QueryCourses(_ context.Context) ([]school.Course, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return append([]school.Course(nil), r.db.courses...), nil
}

func (r *roster) GetCourse(_ context.Context, id string) (school.Course, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if c, ok := school.FindCourse(r.db.courses, id); ok {
		return c, nil
	}
	return school.Course{}, school.ErrCourseNotFound
}

func (r *roster) QueryTeachers(_ context.Context) ([]school.Teacher, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return append([]school.Teacher(nil), r.db.teachers...), nil
}

func (r *roster) QueryEvents(_ context.Context) ([]school.CalendarEvent, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return append([]school.CalendarEvent(nil), r.db.events...), nil
}
