package driver

import (
	"regexp"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type textSub struct {
	re   *regexp.Regexp
	repl string
}

// safetySubs rewrites words known to destabilize vintage synthesizer
// lexicons. Inherited wholesale from field experience; do not prune
// without a crashing engine to test against.
var safetySubs = []textSub{
	{regexp.MustCompile(`(?i)\b(\d+|\W+)?(un|anti|re)?c(ae|æ)sur`), `${1}${2}seizur`},
	{regexp.MustCompile(`(?i)\b(\d+|\W+)?h'(r|v)e`), `${1}h ' ${2} e`},
	{regexp.MustCompile(`hesday`), ` hesday`},
	{regexp.MustCompile(`(?i)\b(\d+|\W+)?tz[s]che`), `${1}tz sche`},
}

// timeRe spaces out h:mm:ss so the engine reads it as a time rather
// than a ratio chain.
var timeRe = regexp.MustCompile(`(\d):(\d+):(\d+)`)

var spaceRe = regexp.MustCompile(`\s+`)

// preprocessor renders utterance text into the byte form one synthesis
// block expects: stability substitutions, time spacing, whitespace
// normalization and, for engines that declare a legacy charset, a
// transcode with replacement of unmappable runes.
type preprocessor struct {
	enc *encoding.Encoder
}

func newPreprocessor(charset string) *preprocessor {
	p := &preprocessor{}
	if cm := charsetMap(charset); cm != nil {
		p.enc = encoding.ReplaceUnsupported(cm.NewEncoder())
	}
	return p
}

func charsetMap(name string) *charmap.Charmap {
	switch name {
	case "windows-1252":
		return charmap.Windows1252
	case "iso-8859-1":
		return charmap.ISO8859_1
	default:
		return nil
	}
}

func (p *preprocessor) prepare(text string) []byte {
	for _, s := range safetySubs {
		text = s.re.ReplaceAllString(text, s.repl)
	}
	text = timeRe.ReplaceAllString(text, "$1:$2 $3")
	text = spaceRe.ReplaceAllString(text, " ")

	if p.enc == nil {
		return []byte(text)
	}
	out, _, err := transform.Bytes(p.enc, []byte(text))
	if err != nil {
		// ReplaceUnsupported should make this unreachable; fall back to
		// the raw bytes rather than lose the utterance.
		return []byte(text)
	}
	return out
}
