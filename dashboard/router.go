package dashboard

import (
	"context"
	"errors"

	"github.com/TurahWilson/TubesIAE/model"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownPage is returned when activating a page that does not exist.
var ErrUnknownPage = errors.New("unknown page")

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Count is one summary figure, derived from a full list fetch.
type Count struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Total int    `json:"total"`
}

// PageView is everything needed to render one activated page.
type PageView struct {
	Page    string      `json:"page"`
	Title   string      `json:"title"`
	User    string      `json:"user"`
	Role    string      `json:"role"`
	CanAdd  bool        `json:"can_add"`
	Nav     []NavItem   `json:"nav"`
	Columns []string    `json:"columns,omitempty"`
	Rows    []Row       `json:"rows,omitempty"`
	Form    []FormField `json:"form,omitempty"`
	Summary []Count     `json:"summary"`
	Alert   string      `json:"alert,omitempty"`
}

// Router decides which page is visible and loads its data on activation.
type Router struct {
	panels []EntityPanel
	byName map[string]EntityPanel
}

func NewRouter(panels ...EntityPanel) *Router {
	r := &Router{panels: panels, byName: make(map[string]EntityPanel, len(panels))}
	for _, p := range panels {
		r.byName[p.Name()] = p
	}
	return r
}

// Panel returns the panel behind an entity page.
func (r *Router) Panel(name string) (EntityPanel, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Known reports whether page can be activated.
func (r *Router) Known(page string) bool {
	_, ok := r.byName[page]
	return ok || page == PageDashboard
}

func (r *Router) nav(active string) []NavItem {
	items := []NavItem{{Name: PageDashboard, Title: "Dashboard", Active: active == PageDashboard}}
	for _, p := range r.panels {
		items = append(items, NavItem{Name: p.Name(), Title: p.Title(), Active: p.Name() == active})
	}
	return items
}

// Shell returns the page frame without loading any data.
func (r *Router) Shell(sess *model.Session, page string) *PageView {
	view := &PageView{
		Page:   page,
		Title:  "Dashboard",
		User:   sess.Label(),
		CanAdd: sess.IsAdmin(),
		Nav:    r.nav(page),
	}
	if sess != nil {
		view.Role = sess.Role
	}
	if p, ok := r.byName[page]; ok {
		view.Title = p.Title()
		view.Columns = p.Columns()
		view.Form = p.Form()
	}
	return view
}

// Activate shows page and reloads its data. Activating the current page
// again simply refetches. On error the returned view holds whatever was
// loaded before the failure.
func (r *Router) Activate(ctx context.Context, sess *model.Session, page string) (*PageView, error) {
	if !r.Known(page) {
		return nil, ErrUnknownPage
	}
	view := r.Shell(sess, page)

	var rows []Row
	if p, ok := r.byName[page]; ok {
		var err error
		rows, err = p.LoadRows(ctx, sess)
		if err != nil {
			return view, err
		}
		view.Rows = rows
	}

	summary, err := r.summary(ctx, sess, page, len(rows))
	view.Summary = summary
	return view, err
}

// Summary counts every collection by fetching it in full.
func (r *Router) Summary(ctx context.Context, sess *model.Session) ([]Count, error) {
	return r.summary(ctx, sess, "", 0)
}

// summary reuses the already loaded row count of the active page.
func (r *Router) summary(ctx context.Context, sess *model.Session, loaded string, loadedCount int) ([]Count, error) {
	counts := make([]Count, len(r.panels))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.panels {
		i, p := i, p
		counts[i] = Count{Name: p.Name(), Title: p.Title()}
		if p.Name() == loaded {
			counts[i].Total = loadedCount
			continue
		}
		g.Go(func() error {
			rows, err := p.LoadRows(gctx, sess)
			if err != nil {
				return err
			}
			counts[i].Total = len(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
