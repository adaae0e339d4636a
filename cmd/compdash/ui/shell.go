package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"compdash/internal/detect"
	"compdash/internal/evidence"
	"compdash/internal/logging"
	"compdash/internal/monitor"
	"compdash/internal/policy"
	"compdash/internal/rag"
	"compdash/internal/reasoner"
	"compdash/internal/store"
)

// Page is the composition contract between the shell and a page unit: mounted
// with Init, fed messages while active, rendered with View. The shell never
// passes data in or reads data out.
type Page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(w, h int)
}

// inputCapturer is implemented by pages with text inputs. While the active
// page is capturing, global shortcuts other than ctrl+c are suspended so
// typed characters reach the input instead of navigating.
type inputCapturer interface {
	CapturesInput() bool
}

// navigateMsg requests an address change. All navigation (initial load, key
// shortcuts, programmatic calls) flows through this one message so there is
// a single source of truth for what is active.
type navigateMsg struct {
	path string
}

// Navigate returns a command requesting an address change to path.
func Navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

// Deps carries the collaborators the pages render from. The shell itself
// only touches the route table and the pages.
type Deps struct {
	Tenant     string
	Violations *store.ViolationStore
	Vault      *evidence.Vault
	Corpus     *rag.Corpus
	Policy     *policy.Engine
	Cognitive  *reasoner.Cognitive
	Registry   *detect.Registry
	Feed       *monitor.Feed
	Activity   *monitor.Feed
}

// Shell binds the route table to the live address: it resolves address
// changes, mounts the matching page, and keeps the sidebar's active-item
// indication in sync.
type Shell struct {
	routes *RouteTable
	pages  map[PageID]Page
	styles Styles
	tenant string

	// active is the derived ActiveRouteState: nil when the current address
	// matches no entry. Written only by onAddressChange.
	active *RouteEntry

	width  int
	height int
	log    *zap.Logger
}

// NewShell builds the shell with one page unit per route table entry.
func NewShell(deps Deps, styles Styles) *Shell {
	pages := map[PageID]Page{
		PageOverview:      NewOverviewPage(deps, styles),
		PageGoalGraph:     NewGoalGraphPage(deps, styles),
		PageMonitoring:    NewMonitoringPage(deps, styles),
		PageRemediation:   NewRemediationPage(deps, styles),
		PageEvidence:      NewEvidencePage(deps, styles),
		PageAgentActivity: NewAgentActivityPage(deps, styles),
		PageViolations:    NewViolationsPage(deps, styles),
		PageQuery:         NewQueryPage(deps, styles),
		PageScanner:       NewScannerPage(deps, styles),
	}
	return &Shell{
		routes: NewRouteTable(),
		pages:  pages,
		styles: styles,
		tenant: deps.Tenant,
		log:    logging.Get(logging.CategoryUI),
	}
}

// Routes exposes the route table (read-only use).
func (s *Shell) Routes() *RouteTable { return s.routes }

// ActivePath returns the active entry's path, or "" when no entry is active.
func (s *Shell) ActivePath() string {
	if s.active == nil {
		return ""
	}
	return s.active.Path
}

// IsActive reports whether entry is the active route. Exact-match for every
// entry, root included; at most one entry is active at any instant.
func (s *Shell) IsActive(entry RouteEntry) bool {
	return s.active != nil && s.active.Path == entry.Path
}

// Init mounts the initial address.
func (s *Shell) Init() tea.Cmd {
	return Navigate("/")
}

// Update implements tea.Model.
func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		w, h := ContentSize(msg.Width, msg.Height)
		for _, p := range s.pages {
			p.SetSize(w, h)
		}
		return s, nil

	case navigateMsg:
		return s, s.onAddressChange(msg.path)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return s, tea.Quit
		}
		if !s.capturing() {
			switch msg.String() {
			case "q":
				return s, tea.Quit
			case "tab":
				return s, Navigate(s.neighborPath(1))
			case "shift+tab":
				return s, Navigate(s.neighborPath(-1))
			}
			if n := shortcutIndex(msg.String()); n >= 0 && n < len(s.routes.Entries()) {
				return s, Navigate(s.routes.Entries()[n].Path)
			}
		}
	}

	// Everything else goes to the mounted page only.
	if s.active != nil {
		return s, s.pages[s.active.Page].Update(msg)
	}
	return s, nil
}

// onAddressChange resolves the new path and swaps the mounted page. Resolving
// the same path that is already active is a no-op, so page-local state
// survives repeated navigation. A resolution miss silently clears the active
// route and the content region.
func (s *Shell) onAddressChange(path string) tea.Cmd {
	if s.active != nil && s.active.Path == path {
		return nil
	}

	entry, ok := s.routes.Resolve(path)
	if !ok {
		s.log.Debug("address matched no route", zap.String("path", path))
		s.active = nil
		return nil
	}

	s.active = &entry
	s.log.Debug("route activated", zap.String("path", entry.Path))
	return s.pages[entry.Page].Init()
}

// capturing reports whether the active page currently owns the keyboard.
func (s *Shell) capturing() bool {
	if s.active == nil {
		return false
	}
	c, ok := s.pages[s.active.Page].(inputCapturer)
	return ok && c.CapturesInput()
}

// neighborPath returns the path offset steps from the active entry in display
// order, wrapping around. With no active entry it returns the first path.
func (s *Shell) neighborPath(offset int) string {
	entries := s.routes.Entries()
	if s.active == nil {
		return entries[0].Path
	}
	for i, e := range entries {
		if e.Path == s.active.Path {
			n := (i + offset + len(entries)) % len(entries)
			return entries[n].Path
		}
	}
	return entries[0].Path
}

// shortcutIndex maps key "1".."9" to a table index, -1 otherwise.
func shortcutIndex(key string) int {
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return int(key[0] - '1')
	}
	return -1
}

// View renders the header, sidebar, content region, and footer. The content
// region shows exactly one page unit, the active one, or nothing.
func (s *Shell) View() string {
	if s.width < MinimumTerminalWidth || s.height < MinimumTerminalHeight {
		return s.styles.Muted.Render("terminal too small — need at least 80x20")
	}

	pageLabel := ""
	content := ""
	if s.active != nil {
		pageLabel = s.active.Label
		content = s.pages[s.active.Page].View()
	}

	_, contentHeight := ContentSize(s.width, s.height)
	sidebar := renderSidebar(s.styles, s.routes.Entries(), s.IsActive, contentHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)

	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(s.styles, s.tenant, pageLabel, s.width),
		body,
		renderFooter(s.styles, s.width),
	)
}
