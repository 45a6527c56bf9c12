package executor

import (
	"bytes"
	"strings"
)

const truncationMarker = "[output truncated]"

// cappedBuffer collects process output up to limit bytes and silently discards
// the rest. A limit of 0 means unbounded. Each stream gets its own buffer, so
// no locking is needed.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
	trailer   []string
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

// Write always reports the full length so the child never sees a short write.
func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.buf.Write(p)
	}
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

// appendLine adds an agent-generated line after the captured output. Trailer
// lines are not subject to the cap.
func (b *cappedBuffer) appendLine(line string) {
	b.trailer = append(b.trailer, line)
}

func (b *cappedBuffer) String() string {
	var sb strings.Builder
	sb.Write(b.buf.Bytes())

	extra := b.trailer
	if b.truncated {
		extra = append([]string{truncationMarker}, extra...)
	}
	for _, line := range extra {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
