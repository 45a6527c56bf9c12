package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCappedBuffer(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		writes  []string
		trailer string
		want    string
	}{
		{"unbounded", 0, []string{"abc", "def"}, "", "abcdef"},
		{"under limit", 10, []string{"abc"}, "", "abc"},
		{"exact limit", 3, []string{"abc"}, "", "abc"},
		{"over limit", 4, []string{"abc", "def"}, "", "abcd\n" + truncationMarker + "\n"},
		{"trailer", 0, []string{"out"}, "command timed out after 1s", "out\ncommand timed out after 1s\n"},
		{"trailer after newline", 0, []string{"out\n"}, "done", "out\ndone\n"},
		{"trailer only", 0, nil, "done", "done\n"},
		{"truncated with trailer", 2, []string{"abc"}, "done", "ab\n" + truncationMarker + "\ndone\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newCappedBuffer(tt.limit)
			for _, w := range tt.writes {
				n, err := b.Write([]byte(w))
				assert.NoError(t, err)
				assert.Equal(t, len(w), n)
			}
			if tt.trailer != "" {
				b.appendLine(tt.trailer)
			}
			assert.Equal(t, tt.want, b.String())
		})
	}
}
