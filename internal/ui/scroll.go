package ui

import (
	"math"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ScrollPane is a viewport whose scroll position survives content
// replacement as a fraction of the total line count.
type ScrollPane struct {
	viewport viewport.Model
}

// NewScrollPane creates a pane of the given size
func NewScrollPane(width, height int) ScrollPane {
	return ScrollPane{viewport: viewport.New(width, height)}
}

// SetSize resizes the pane, keeping the scroll fraction
func (p *ScrollPane) SetSize(width, height int) {
	fraction := p.Fraction()
	p.viewport.Width = width
	p.viewport.Height = height
	p.SetFraction(fraction)
}

// Fraction is the top visible line divided by the total line count
func (p ScrollPane) Fraction() float64 {
	total := p.viewport.TotalLineCount()
	if total == 0 {
		return 0
	}
	return float64(p.viewport.YOffset) / float64(total)
}

// SetFraction scrolls so the top visible line sits at fraction of the
// content, clamped to the scrollable range.
func (p *ScrollPane) SetFraction(fraction float64) {
	total := p.viewport.TotalLineCount()
	p.viewport.SetYOffset(int(math.Round(fraction * float64(total))))
}

// Replace swaps the content and restores the previous scroll fraction
func (p *ScrollPane) Replace(content string) {
	fraction := p.Fraction()
	p.viewport.SetContent(content)
	p.SetFraction(fraction)
}

// YOffset is the index of the top visible line
func (p ScrollPane) YOffset() int {
	return p.viewport.YOffset
}

// GotoTop scrolls to the first line
func (p *ScrollPane) GotoTop() {
	p.viewport.GotoTop()
}

// GotoBottom scrolls to the last page
func (p *ScrollPane) GotoBottom() {
	p.viewport.GotoBottom()
}

// Update forwards scrolling keys and mouse wheel events
func (p ScrollPane) Update(msg tea.Msg) (ScrollPane, tea.Cmd) {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View renders the visible lines
func (p ScrollPane) View() string {
	return p.viewport.View()
}
