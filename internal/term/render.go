package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

var (
	styleText      = tcell.StyleDefault
	styleMarked    = tcell.StyleDefault.Underline(true)
	styleStatus    = tcell.StyleDefault.Reverse(true)
	styleTooltip   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleLabel     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHighlight = tcell.StyleDefault.Reverse(true)
)

// textTop is the first row of the text area; row 0 is the status line.
const textTop = 1

// pen writes runes left to right, wrapping at the screen edge.
type pen struct {
	screen        tcell.Screen
	x, y          int
	width, height int
}

func (p *pen) newline() {
	p.x, p.y = 0, p.y+1
}

func (p *pen) put(r rune, style tcell.Style) {
	switch r {
	case '\n':
		p.newline()
		return
	case '\t':
		r = ' '
	}
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if p.x+w > p.width {
		p.newline()
	}
	if p.y < p.height {
		p.screen.SetContent(p.x, p.y, r, nil, style)
	}
	p.x += w
}

// drawString draws s on row y from column x without wrapping and returns the
// column after it.
func drawString(s tcell.Screen, x, y int, text string, style tcell.Style) int {
	width, _ := s.Size()
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > width {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}

// draw renders the status line, the document with its marked text, the
// tooltip and the candidate list.
func (u *UI) draw() {
	s := u.screen
	s.Clear()
	width, height := s.Size()
	snap := u.doc.Snapshot()

	status := fmt.Sprintf(" %s  Ctrl-T mode  Ctrl-C quit", u.controller.Settings().Mode)
	end := drawString(s, 0, 0, status, styleStatus)
	for x := end; x < width; x++ {
		s.SetContent(x, 0, ' ', nil, styleStatus)
	}

	p := &pen{screen: s, y: textTop, width: width, height: height}
	for _, r := range snap.Committed {
		p.put(r, styleText)
	}
	cx, cy := p.x, p.y
	anchorX, anchorY := p.x, p.y
	for i, r := range []rune(snap.Marked) {
		if i == snap.Cursor {
			cx, cy = p.x, p.y
		}
		if i == snap.TooltipAnchor {
			anchorX, anchorY = p.x, p.y
		}
		p.put(r, styleMarked)
	}
	if snap.Cursor >= len([]rune(snap.Marked)) {
		cx, cy = p.x, p.y
	}
	s.ShowCursor(cx, cy)

	row := p.y + 2
	if snap.Tooltip != "" {
		x := min(anchorX, max(width-runewidth.StringWidth(snap.Tooltip), 0))
		drawString(s, x, max(row, anchorY+1), snap.Tooltip, styleTooltip)
		row = max(row, anchorY+1) + 1
	}
	if u.window.visible {
		u.drawCandidates(row)
	}
	s.Show()
}

func (u *UI) drawCandidates(row int) {
	s := u.screen
	w := u.window.window
	start, end, page, pages := u.window.page()

	if w.Tooltip != "" {
		drawString(s, 0, row, w.Tooltip, styleTooltip)
		row++
	}
	x := 0
	for i := start; i < end; i++ {
		style := styleText
		if i == u.window.cursor {
			style = styleHighlight
		}
		label := ""
		if j := i - start; j < len(w.Labels) {
			label = w.Labels[j]
		}
		if w.Vertical {
			x = 0
		}
		x = drawString(s, x, row, label+".", styleLabel)
		x = drawString(s, x, row, w.Candidates[i], style)
		if w.Vertical {
			row++
		} else {
			x = drawString(s, x, row, " ", styleText)
		}
	}
	if pages > 1 {
		if w.Vertical {
			x = 0
		}
		drawString(s, x, row, fmt.Sprintf("(%d/%d)", page, pages), styleLabel)
	}
}
