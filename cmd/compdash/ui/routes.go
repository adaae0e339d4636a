package ui

// PageID tags one of the dashboard's page units. The route table maps paths
// to tags, never to concrete page types, so the shell stays decoupled from
// page internals.
type PageID int

const (
	PageOverview PageID = iota
	PageGoalGraph
	PageMonitoring
	PageRemediation
	PageEvidence
	PageAgentActivity
	PageViolations
	PageQuery
	PageScanner
)

// RouteEntry binds one path to one page unit plus its sidebar metadata.
type RouteEntry struct {
	Path     string
	Page     PageID
	Label    string
	Icon     string
	Featured bool
}

// RouteTable is the immutable, ordered set of navigable destinations.
// Ordering is the sidebar display order; resolution ignores it.
type RouteTable struct {
	entries []RouteEntry
}

// NewRouteTable returns the dashboard's route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{entries: []RouteEntry{
		{Path: "/", Page: PageOverview, Label: "Compliance Overview", Icon: "◉"},
		{Path: "/goal-graph", Page: PageGoalGraph, Label: "Goal Graph", Icon: "◈"},
		{Path: "/monitoring", Page: PageMonitoring, Label: "Live Monitoring", Icon: "▣"},
		{Path: "/remediation", Page: PageRemediation, Label: "Remediation", Icon: "✚"},
		{Path: "/evidence", Page: PageEvidence, Label: "Evidence Vault", Icon: "⬡"},
		{Path: "/agent-activity", Page: PageAgentActivity, Label: "Agent Activity", Icon: "↯"},
		{Path: "/violations", Page: PageViolations, Label: "Violation Analysis", Icon: "△"},
		{Path: "/compliance-query", Page: PageQuery, Label: "Compliance Query", Icon: "?", Featured: true},
		{Path: "/multi-regulation", Page: PageScanner, Label: "Multi-Regulation Scan", Icon: "≡"},
	}}
}

// Resolve returns the entry matching path, or ok=false on a miss. Matching is
// exact string equality for every entry; the root entry never matches as a
// prefix of another path.
func (t *RouteTable) Resolve(path string) (RouteEntry, bool) {
	for _, e := range t.entries {
		if e.Path == path {
			return e, true
		}
	}
	return RouteEntry{}, false
}

// Entries returns the table in display order.
func (t *RouteTable) Entries() []RouteEntry {
	return t.entries
}
