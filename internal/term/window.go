package term

import "github.com/GoatWang/BopomofoLLM/internal/session"

// candidateList is the candidate window drawn below the text.
type candidateList struct {
	window  session.Window
	visible bool
	cursor  int
}

var _ session.CandidateWindow = (*candidateList)(nil)

func (c *candidateList) Show(w session.Window) {
	c.window, c.visible, c.cursor = w, true, 0
}

func (c *candidateList) Hide() {
	c.window, c.visible, c.cursor = session.Window{}, false, 0
}

func (c *candidateList) Highlighted() int {
	if !c.visible {
		return -1
	}
	return c.cursor
}

func (c *candidateList) SetHighlighted(index int) {
	if !c.visible || index < 0 || index >= len(c.window.Candidates) {
		return
	}
	c.cursor = index
}

// page returns the range of candidates on the highlighted candidate's page
// and the page number, counted from 1, out of pages.
func (c *candidateList) page() (start, end, page, pages int) {
	size := c.window.PageSize()
	n := len(c.window.Candidates)
	if !c.visible || size == 0 || n == 0 {
		return 0, 0, 0, 0
	}
	start = c.cursor / size * size
	end = min(start+size, n)
	return start, end, start/size + 1, (n + size - 1) / size
}
