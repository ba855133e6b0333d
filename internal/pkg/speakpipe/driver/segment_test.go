package driver

import (
	"reflect"
	"testing"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name       string
		in         Utterance
		blocks     []Block
		anyText    bool
		allIndexes []int
	}{
		{
			name: "indexes split blocks",
			in:   Utterance{Text("Hello"), Index(1), Text("world"), Index(2), Index(3)},
			blocks: []Block{
				{Text: "Hello", IndexesAfter: []int{1}},
				{Text: "world", IndexesAfter: []int{2, 3}},
			},
			anyText:    true,
			allIndexes: []int{1, 2, 3},
		},
		{
			name: "pitch change splits blocks",
			in:   Utterance{PitchOffset(20), Text("Cap"), PitchOffset(0), Text("rest")},
			blocks: []Block{
				{Text: "Cap", PitchOffset: 20},
				{Text: "rest", PitchOffset: 0},
			},
			anyText: true,
		},
		{
			name:       "index only",
			in:         Utterance{Index(5), Index(6)},
			blocks:     []Block{{IndexesAfter: []int{5, 6}}},
			anyText:    false,
			allIndexes: []int{5, 6},
		},
		{
			name:    "adjacent text joins with spaces",
			in:      Utterance{Text("one"), Text("two"), Text("three")},
			blocks:  []Block{{Text: "one two three"}},
			anyText: true,
		},
		{
			name: "trailing empty block dropped",
			in:   Utterance{Text("a"), Index(1), Text("")},
			blocks: []Block{
				{Text: "a", IndexesAfter: []int{1}},
			},
			anyText:    true,
			allIndexes: []int{1},
		},
		{
			name: "empty utterance",
			in:   Utterance{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, anyText, allIndexes := segment(tt.in)
			if !reflect.DeepEqual(blocks, tt.blocks) {
				t.Errorf("blocks = %+v, want %+v", blocks, tt.blocks)
			}
			if anyText != tt.anyText {
				t.Errorf("anyText = %v, want %v", anyText, tt.anyText)
			}
			if !reflect.DeepEqual(allIndexes, tt.allIndexes) {
				t.Errorf("allIndexes = %v, want %v", allIndexes, tt.allIndexes)
			}
		})
	}
}

func TestClampPitch(t *testing.T) {
	if got := clampPitch(-5); got != 0 {
		t.Errorf("clampPitch(-5) = %d, want 0", got)
	}
	if got := clampPitch(140); got != 100 {
		t.Errorf("clampPitch(140) = %d, want 100", got)
	}
	if got := clampPitch(60); got != 60 {
		t.Errorf("clampPitch(60) = %d, want 60", got)
	}
}
