package agent

// BufferLines is the number of output lines retained per agent. The buffer
// is a display cache, not a durable log; older lines are discarded.
const BufferLines = 100

// TerminalBuffer is a bounded ring of the most recent output lines.
type TerminalBuffer struct {
	lines []string
	start int
	count int
}

// NewTerminalBuffer returns a ring holding at most BufferLines lines.
func NewTerminalBuffer() *TerminalBuffer {
	return &TerminalBuffer{lines: make([]string, BufferLines)}
}

// Append adds a line, evicting the oldest once full.
func (b *TerminalBuffer) Append(line string) {
	idx := (b.start + b.count) % len(b.lines)
	b.lines[idx] = line
	if b.count < len(b.lines) {
		b.count++
		return
	}
	b.start = (b.start + 1) % len(b.lines)
}

// Lines returns the retained lines, oldest first.
func (b *TerminalBuffer) Lines() []string {
	out := make([]string, 0, b.count)
	for i := range b.count {
		out = append(out, b.lines[(b.start+i)%len(b.lines)])
	}
	return out
}

// Len returns the number of retained lines.
func (b *TerminalBuffer) Len() int { return b.count }
