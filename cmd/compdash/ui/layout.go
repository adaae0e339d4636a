package ui

// Layout constants for the shell's fixed regions.
const (
	SidebarWidth = 26

	HeaderHeight = 2
	FooterHeight = 1

	// Minimum terminal size before the shell degrades to a resize hint.
	MinimumTerminalWidth  = 80
	MinimumTerminalHeight = 20
)

// ContentSize returns the content region dimensions for a terminal size.
func ContentSize(termWidth, termHeight int) (w, h int) {
	w = termWidth - SidebarWidth - 1
	h = termHeight - HeaderHeight - FooterHeight
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}
