package dictionary

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
	"github.com/GoatWang/BopomofoLLM/internal/state"
)

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) Open(rawURL string) error {
	o.urls = append(o.urls, rawURL)
	return o.err
}

func selection(phrase string) state.SelectingDictionary {
	return state.SelectingDictionary{
		Previous:       state.NewInputting(phrase, 1, ""),
		SelectedPhrase: phrase,
		SelectedIndex:  2,
	}
}

func TestWebURL(t *testing.T) {
	opener := &recordingOpener{}
	services := DefaultServices(opener)

	tests := []struct {
		index int
		want  string
	}{
		{0, "https://dict.revised.moe.edu.tw/search.jsp?md=1&word=%E4%BD%A0%E5%A5%BD"},
		{1, "https://www.moedict.tw/%E4%BD%A0%E5%A5%BD"},
		{2, "https://www.google.com/search?q=%E4%BD%A0%E5%A5%BD"},
		{3, "https://zh.wikipedia.org/wiki/%E4%BD%A0%E5%A5%BD"},
	}
	for _, tt := range tests {
		t.Run(services[tt.index].Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, services[tt.index].(Web).URL("你好"))
		})
	}

	assert.Equal(t, "https://www.google.com/search?q=a+b", services[2].(Web).URL("a b"))
	assert.Equal(t, "https://zh.wikipedia.org/wiki/a%20b", services[3].(Web).URL("a b"))
}

func TestServicesLookUp(t *testing.T) {
	opener := &recordingOpener{}
	s := New(logging.Discard(), DefaultServices(opener)...)
	require.Equal(t, []string{"MOE Revised Dictionary", "Moedict", "Google", "Wikipedia", "Character Information"}, s.Names())

	next, handled := s.LookUp(selection("好"), 2)
	assert.Nil(t, next)
	assert.True(t, handled)
	assert.Equal(t, []string{"https://www.google.com/search?q=%E5%A5%BD"}, opener.urls)

	sel := selection("好")
	next, handled = s.LookUp(sel, 4)
	assert.False(t, handled)
	info, ok := next.(state.ShowingCharInfo)
	require.True(t, ok)
	assert.Equal(t, sel, info.Previous)
	assert.Equal(t, Describe("好"), info.Entries)
}

func TestServicesLookUpFailures(t *testing.T) {
	opener := &recordingOpener{err: errors.New("no launcher")}
	s := New(logging.Discard(), DefaultServices(opener)...)

	next, handled := s.LookUp(selection("好"), 0)
	assert.Nil(t, next)
	assert.False(t, handled)

	next, handled = s.LookUp(selection("好"), 9)
	assert.Nil(t, next)
	assert.False(t, handled)
}

func TestDescribe(t *testing.T) {
	entries := Describe("你")
	assert.Equal(t, []state.TitleValue{
		{Title: "UTF-8 HEX: E4BDA0", Value: "E4BDA0"},
		{Title: "UTF-16 HEX: 4F60", Value: "4F60"},
		{Title: "URL Escape: %E4%BD%A0", Value: "%E4%BD%A0"},
		{Title: "Big5 HEX: A741", Value: "A741"},
		{Title: "Code Points: U+4F60", Value: "U+4F60"},
	}, entries)
}

func TestDescribeWithoutBig5(t *testing.T) {
	entries := Describe("😀")
	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{
		"UTF-8 HEX: F09F9880",
		"UTF-16 HEX: D83D DE00",
		"URL Escape: %F0%9F%98%80",
		"Code Points: U+1F600",
	}, titles)
}

func TestBrowser(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	assert.NoError(t, Browser{Command: "true"}.Open("https://example.com"))
	assert.Error(t, Browser{Command: "/nonexistent/launcher"}.Open("https://example.com"))
}
