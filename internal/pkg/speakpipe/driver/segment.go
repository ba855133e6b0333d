package driver

import "strings"

// Command is one element of an utterance.
type Command interface {
	isCommand()
}

// Text is spoken content.
type Text string

// Index requests an index-reached notification once the audio preceding
// it has been committed to the device.
type Index int

// PitchOffset changes the voice pitch by a percentage of the base pitch
// for the text that follows it (screen readers use this to mark capital
// letters). Zero restores the base pitch.
type PitchOffset int

func (Text) isCommand()        {}
func (Index) isCommand()       {}
func (PitchOffset) isCommand() {}

// Utterance is an ordered sequence of commands passed to Speak.
type Utterance []Command

// Block is the unit of work submitted to the synthesis pump: a
// contiguous run of text sharing one pitch offset, plus the index ids to
// release after its audio.
type Block struct {
	Text         string
	IndexesAfter []int
	PitchOffset  int
}

// segment splits an utterance into blocks at pitch-change and index
// boundaries, preserving input order. Consecutive text fragments are
// joined with single spaces; text arriving after pending indexes starts
// a new block so each index stays anchored to the audio it trails.
// Trailing blocks with neither text nor indexes are dropped. anyText is
// false for index-only utterances, which short-circuit past the
// pipeline entirely.
func segment(u Utterance) (blocks []Block, anyText bool, allIndexes []int) {
	var textBuf []string
	var pending []int
	offset := 0

	flush := func() {
		blocks = append(blocks, Block{
			Text:         strings.Join(textBuf, " "),
			IndexesAfter: append([]int(nil), pending...),
			PitchOffset:  offset,
		})
		textBuf = textBuf[:0]
		pending = pending[:0]
	}

	for _, cmd := range u {
		switch c := cmd.(type) {
		case Text:
			if len(pending) > 0 {
				flush()
			}
			textBuf = append(textBuf, string(c))
		case Index:
			pending = append(pending, int(c))
		case PitchOffset:
			if len(textBuf) > 0 {
				flush()
			}
			offset = int(c)
		}
	}
	if len(textBuf) > 0 || len(pending) > 0 {
		flush()
	}

	for len(blocks) > 0 {
		last := blocks[len(blocks)-1]
		if last.Text != "" || len(last.IndexesAfter) > 0 {
			break
		}
		blocks = blocks[:len(blocks)-1]
	}

	for _, b := range blocks {
		if b.Text != "" {
			anyText = true
		}
		allIndexes = append(allIndexes, b.IndexesAfter...)
	}
	return blocks, anyText, allIndexes
}
