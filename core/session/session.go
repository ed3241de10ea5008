package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/identity"
)

var ErrNotAdmin = errors.New("only administrators can change pages")

type State string

const (
	StateAnonymous State = "anonymous"
	StateAdmin     State = "admin"
	StateGuardian  State = "guardian"
)

type Session struct {
	ID          string    `json:"id,omitempty"`
	State       State     `json:"state"`
	Identifier  string    `json:"identifier,omitempty"` // canonical
	DisplayName string    `json:"display_name,omitempty"`
	StudentID   string    `json:"student_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

func Anonymous() Session { return Session{State: StateAnonymous} }

func (s Session) Authenticated() bool { return s.State == StateAdmin || s.State == StateGuardian }

func (s Session) String() string {
	if !s.Authenticated() {
		return string(StateAnonymous)
	}
	return fmt.Sprintf("%s:%s", s.State, s.ID)
}

// Authenticator resolves credentials, see identity.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, role identity.Role, identifier, secret string) (identity.Outcome, error)
}

// Controller owns the single session slot and the admin page selection.
type Controller struct {
	auth   Authenticator
	router *Router
	logger core.Logger

	mu      sync.RWMutex
	current Session
	page    Page
	now     func() time.Time
}

func NewController(auth Authenticator, router *Router, logger core.Logger) *Controller {
	return &Controller{
		auth:    auth,
		router:  router,
		logger:  logger,
		current: Anonymous(),
		page:    PageDashboard,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Login replaces the current session on success. On failure the slot is left as is.
func (c *Controller) Login(ctx context.Context, role identity.Role, identifier, secret string) (Session, error) {
	out, err := c.auth.Authenticate(ctx, role, identifier, secret)
	if err != nil {
		return Session{}, err
	}

	sess := Session{
		ID:          uuid.New().String(),
		Identifier:  out.Identifier,
		DisplayName: out.DisplayName,
		StudentID:   out.StudentID,
		StartedAt:   c.now(),
	}
	if out.Role == identity.RoleAdmin {
		sess.State = StateAdmin
	} else {
		sess.State = StateGuardian
	}

	c.mu.Lock()
	c.current = sess
	c.page = PageDashboard
	c.mu.Unlock()

	c.logger.Info("session started", sess)
	return sess, nil
}

// Logout reverts to Anonymous and resets the page selection.
func (c *Controller) Logout() {
	c.mu.Lock()
	prev := c.current
	c.current = Anonymous()
	c.page = PageDashboard
	c.mu.Unlock()

	if prev.Authenticated() {
		c.logger.Info("session ended", prev)
	}
}

func (c *Controller) Current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Page returns the selected admin page.
func (c *Controller) Page() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Navigate selects an admin page; unknown pages select the dashboard.
func (c *Controller) Navigate(page Page) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.State != StateAdmin {
		return "", ErrNotAdmin
	}
	if !page.Valid() {
		page = PageDashboard
	}
	c.page = page
	return page, nil
}

// View resolves the current session against the selected page.
func (c *Controller) View(ctx context.Context) RenderTarget {
	c.mu.RLock()
	sess, page := c.current, c.page
	c.mu.RUnlock()
	return c.router.Resolve(ctx, sess, page)
}

// Resolve resolves the current session against page, without selecting it.
func (c *Controller) Resolve(ctx context.Context, page Page) RenderTarget {
	return c.router.Resolve(ctx, c.Current(), page)
}
