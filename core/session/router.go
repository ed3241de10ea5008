package session

import (
	"context"
	"errors"

	"github.com/cebe/gestao/core/credential"
	"github.com/cebe/gestao/core/school"
)

var ErrLinkedStudentNotFound = errors.New("the student linked to this access no longer exists")

type View string

const (
	ViewLogin          View = "login"
	ViewAdmin          View = "admin"
	ViewGuardianPortal View = "guardian-portal"
	ViewError          View = "error"
)

type Page string

const (
	PageDashboard      Page = "dashboard"
	PageStudents       Page = "students"
	PageTeachers       Page = "teachers"
	PageCourses        Page = "courses"
	PageCalendar       Page = "calendar"
	PageFinancial      Page = "financial"
	PageReceipts       Page = "receipts"
	PageCommunications Page = "communications"
	PageReports        Page = "reports"
)

// AdminPages lists the admin shell pages in menu order.
var AdminPages = []Page{
	PageDashboard,
	PageStudents,
	PageTeachers,
	PageCourses,
	PageCalendar,
	PageFinancial,
	PageReceipts,
	PageCommunications,
	PageReports,
}

var pageTitles = map[Page]string{
	PageDashboard:      "Painel de Controle",
	PageStudents:       "Gerenciamento de Alunos",
	PageTeachers:       "Gerenciamento de Professores",
	PageCourses:        "Gerenciamento de Cursos",
	PageCalendar:       "Calendário Acadêmico",
	PageFinancial:      "Controle Financeiro",
	PageReceipts:       "Emissão de Recibos",
	PageCommunications: "Comunicados (WhatsApp)",
	PageReports:        "Relatórios",
}

const (
	loginTitle  = "Acesso ao Sistema"
	portalTitle = "Portal do Responsável"
	errorTitle  = "Acesso Indisponível"
)

func (p Page) Valid() bool {
	_, ok := pageTitles[p]
	return ok
}

func (p Page) Title() string { return pageTitles[p] }

// RenderTarget is what the rendering layer should show.
type RenderTarget struct {
	View      View   `json:"view"`
	Page      Page   `json:"page,omitempty"`
	Title     string `json:"title"`
	StudentID string `json:"student_id,omitempty"`
	Error     string `json:"error,omitempty"`

	err error
}

// Err returns the error behind an error target, if any.
func (rt RenderTarget) Err() error { return rt.err }

func errorTarget(err error) RenderTarget {
	return RenderTarget{View: ViewError, Title: errorTitle, Error: err.Error(), err: err}
}

// Router maps a session and a requested page to a render target.
type Router struct {
	roster school.Roster
}

func NewRouter(roster school.Roster) *Router {
	return &Router{roster: roster}
}

// Resolve never fails: problems surface as an error target.
func (r *Router) Resolve(ctx context.Context, sess Session, page Page) RenderTarget {
	switch sess.State {
	case StateAdmin:
		if !page.Valid() {
			page = PageDashboard
		}
		return RenderTarget{View: ViewAdmin, Page: page, Title: page.Title()}
	case StateGuardian:
		// page is ignored: guardians have a single view
		std, err := r.roster.GetStudent(ctx, sess.StudentID)
		if err != nil {
			if errors.Is(err, school.ErrStudentNotFound) {
				return errorTarget(ErrLinkedStudentNotFound)
			}
			return errorTarget(err)
		}
		if !credential.SameIdentifier(std.GuardianCPF, sess.Identifier) {
			return errorTarget(ErrLinkedStudentNotFound)
		}
		return RenderTarget{View: ViewGuardianPortal, Title: portalTitle, StudentID: std.ID}
	default:
		return RenderTarget{View: ViewLogin, Title: loginTitle}
	}
}
