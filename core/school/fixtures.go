package school

import "fmt"

func grade(v float64) *float64 { return &v }

// Fixtures is the seed data the school starts with.
type Fixtures struct {
	Courses  []Course
	Students []Student
	Teachers []Teacher
	Events   []CalendarEvent
}

// Validate rejects students whose payment status is not one of PaymentStatuses,
// since the financial reports would silently skip them.
func (fx Fixtures) Validate() error {
	for _, s := range fx.Students {
		if !s.PaymentStatus.Valid() {
			return fmt.Errorf("student %s: %w %q", s.ID, ErrInvalidPayment, s.PaymentStatus)
		}
	}
	return nil
}

// SeedFixtures returns a fresh copy of the default seed data.
func SeedFixtures() Fixtures {
	return Fixtures{
		Courses: []Course{
			{ID: "crs-1", Name: "Desenvolvimento Web Full-Stack", Description: "Aprenda a criar aplicações web do zero.", Duration: "12 meses", TuitionFee: 499.90, WhatsappGroupLink: "https://chat.whatsapp.com/L1nkExample1"},
			{ID: "crs-2", Name: "Ciência de Dados com Python", Description: "Domine análise de dados, machine learning e visualização.", Duration: "9 meses", TuitionFee: 599.90},
			{ID: "crs-3", Name: "Design de UX/UI", Description: "Crie interfaces intuitivas e experiências de usuário memoráveis.", Duration: "6 meses", TuitionFee: 399.90},
			{ID: "crs-4", Name: "Marketing Digital", Description: "Estratégias de SEO, mídias sociais e marketing de conteúdo.", Duration: "8 meses", TuitionFee: 350.00},
		},
		Students: []Student{
			{
				ID: "std-1", Name: "Ana Silva", DOB: "1998-05-15", Email: "ana.silva@email.com", Phone: "(11) 98765-4321",
				EnrolledCourseID: "crs-1", PaymentStatus: PaymentPaid, GuardianName: "Maria Silva", GuardianCPF: "111.222.333-44",
				AcademicRecords: []AcademicRecord{
					{Subject: "HTML/CSS", Grade1: grade(8.5), Grade2: grade(9.0), Attendance: 95},
					{Subject: "JavaScript", Grade1: grade(7.0), Grade2: grade(8.2), Attendance: 88, Observations: "Bom desempenho em lógica."},
					{Subject: "React Basics", Grade1: grade(8.0), Attendance: 100},
				},
			},
			{
				ID: "std-2", Name: "Bruno Costa", DOB: "2000-02-20", Email: "bruno.costa@email.com", Phone: "(21) 91234-5678",
				EnrolledCourseID: "crs-2", PaymentStatus: PaymentPending, GuardianName: "Carlos Costa", GuardianCPF: "555.666.777-88",
				AcademicRecords: []AcademicRecord{
					{Subject: "Python Intro", Grade1: grade(6.5), Grade2: grade(7.0), Attendance: 70, Observations: "Precisa melhorar frequência."},
					{Subject: "Estatística", Grade1: grade(8.0), Attendance: 90},
				},
			},
			{ID: "std-3", Name: "Carla Dias", DOB: "1999-11-30", Email: "carla.dias@email.com", Phone: "(31) 95555-8888", EnrolledCourseID: "crs-3", PaymentStatus: PaymentOverdue, GuardianName: "Roberto Dias", GuardianCPF: "999.888.777-66"},
			{ID: "std-4", Name: "Daniel Martins", DOB: "2001-07-10", Email: "daniel.martins@email.com", Phone: "(41) 99999-1111", EnrolledCourseID: "crs-1", PaymentStatus: PaymentPaid, GuardianName: "Sônia Martins", GuardianCPF: "222.333.444-55"},
			{ID: "std-5", Name: "Eduarda Ferreira", DOB: "1997-09-05", Email: "eduarda.f@email.com", Phone: "(51) 98888-2222", EnrolledCourseID: "crs-4", PaymentStatus: PaymentPending, GuardianName: "Paulo Ferreira", GuardianCPF: "000.111.222-33"},
		},
		Teachers: []Teacher{
			{ID: "tchr-1", Name: "Roberto Almeida", DOB: "1982-05-10", Phone: "(11) 98888-7777", Address: "Rua das Flores, 123, São Paulo - SP"},
			{ID: "tchr-2", Name: "Juliana Mendes", DOB: "1990-09-15", Phone: "(21) 97777-6666", Address: "Av. Paulista, 1000, São Paulo - SP"},
		},
		Events: []CalendarEvent{
			{ID: "evt-1", Title: "Início das Aulas", Date: "2024-02-05", Type: EventOther, Description: "Boas-vindas aos novos alunos"},
			{ID: "evt-2", Title: "Feriado de Carnaval", Date: "2024-02-13", Type: EventHoliday},
			{ID: "evt-3", Title: "Prova de UX/UI", Date: "2024-03-15", Type: EventExam, Description: "Turma A"},
			{ID: "evt-4", Title: "Reunião Pedagógica", Date: "2024-03-20", Type: EventMeeting},
		},
	}
}
