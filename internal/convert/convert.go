// Package convert rewrites text on its way to the client.
package convert

import (
	"fmt"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"
	"golang.org/x/text/width"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// punctuation has no narrow form in Unicode but does have an ASCII
// counterpart.
var punctuation = map[rune]string{
	'。': ".",
	'、': ",",
	'「': "\"",
	'」': "\"",
	'『': "'",
	'』': "'",
	'《': "<",
	'》': ">",
	'〈': "<",
	'〉': ">",
	'【': "[",
	'】': "]",
	'〔': "[",
	'〕': "]",
	'～': "~",
	'…': "...",
	'—': "-",
}

// HalfWidthPunctuation replaces full-width punctuation in s with ASCII.
// Letters, digits and ideographs are left alone.
func HalfWidthPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ascii, ok := punctuation[r]; ok {
			b.WriteString(ascii)
			continue
		}
		if r >= 0xFF01 && r <= 0xFF5E && !isAlnum(r) {
			b.WriteString(width.Narrow.String(string(r)))
			continue
		}
		if r == 0x3000 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= '０' && r <= '９') || (r >= 'Ａ' && r <= 'Ｚ') || (r >= 'ａ' && r <= 'ｚ')
}

// Converter applies the commit filters. It implements session.Converter.
type Converter struct {
	log *logging.Logger

	once sync.Once
	t2s  *opencc.OpenCC
	err  error
}

// New returns a Converter. The conversion dictionaries are loaded on first
// use.
func New(logger *logging.Logger) *Converter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Converter{log: logger.WithComponent("convert")}
}

// Simplify converts traditional Chinese to simplified Chinese.
func (c *Converter) Simplify(s string) (string, error) {
	c.once.Do(func() {
		c.t2s, c.err = opencc.New("t2s")
	})
	if c.err != nil {
		return s, fmt.Errorf("convert: load t2s: %w", c.err)
	}
	out, err := c.t2s.Convert(s)
	if err != nil {
		return s, fmt.Errorf("convert: t2s: %w", err)
	}
	return out, nil
}

// Convert applies half-width punctuation, then simplification, as enabled.
// When simplification fails the text is committed unconverted.
func (c *Converter) Convert(text string, halfWidthPunctuation, simplified bool) string {
	if halfWidthPunctuation {
		text = HalfWidthPunctuation(text)
	}
	if simplified {
		out, err := c.Simplify(text)
		if err != nil {
			c.log.Warn("chinese conversion failed", "error", err)
			return text
		}
		text = out
	}
	return text
}
