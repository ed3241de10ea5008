package inmemdb

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/cebe/gestao/core/school"
)

type (
	DB struct {
		slots  *slotTable
		school *schoolTables
	}

	slotTable struct {
		sync.RWMutex
		table map[string][]byte
	}

	schoolTables struct {
		sync.RWMutex
		courses  []school.Course
		students []school.Student
		teachers []school.Teacher
		events   []school.CalendarEvent
	}
)

// Open returns an empty database seeded with fx.
func Open(fx school.Fixtures) (*DB, error) {
	if err := fx.Validate(); err != nil {
		return nil, errors.Wrap(err, "seeding roster")
	}
	db := &DB{
		slots: &slotTable{table: make(map[string][]byte)},
		school: &schoolTables{
			courses:  fx.Courses,
			students: fx.Students,
			teachers: fx.Teachers,
			events:   fx.Events,
		},
	}
	return db, nil
}
