// Package lines provides LineSet, the set of covered source lines of one file,
// together with its compacted range string form ("1,3-4,6-7,10").
package lines

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const wordSize = 64

// MaxLine is the largest line number a LineSet holds. Class files store line numbers as
// unsigned 16 bit values, so real line numbers stay far below it.
const MaxLine = 1 << 20

// LineSet is an ordered set of positive line numbers backed by a bit set.
// The zero value is an empty set ready to use. A LineSet is not safe for concurrent mutation.
type LineSet struct {
	words []uint64
}

// New creates a LineSet containing the given lines.
func New(lines ...int) *LineSet {
	s := &LineSet{}
	for _, line := range lines {
		s.Add(line)
	}
	return s
}

// Add adds a single line. Non-positive lines are ignored since they denote "no line information",
// lines above MaxLine are ignored as well.
func (s *LineSet) Add(line int) {
	if line <= 0 || line > MaxLine {
		return
	}
	s.grow(line)
	s.words[line/wordSize] |= 1 << uint(line%wordSize)
}

// AddRange adds all lines from 'from' to 'to', both inclusive. The range is clipped to 1..MaxLine.
func (s *LineSet) AddRange(from int, to int) {
	if from <= 0 {
		from = 1
	}
	if to > MaxLine {
		to = MaxLine
	}
	for line := from; line <= to; line++ {
		s.Add(line)
	}
}

// Merge adds all lines of other to this set.
func (s *LineSet) Merge(other *LineSet) {
	if other == nil {
		return
	}
	if len(other.words) > len(s.words) {
		words := make([]uint64, len(other.words))
		copy(words, s.words)
		s.words = words
	}
	for i, word := range other.words {
		s.words[i] |= word
	}
}

// RemoveAll removes all lines of other from this set.
func (s *LineSet) RemoveAll(other *LineSet) {
	if other == nil {
		return
	}
	for i := 0; i < len(s.words) && i < len(other.words); i++ {
		s.words[i] &^= other.words[i]
	}
	s.trim()
}

// Contains returns true if the line is in the set.
func (s *LineSet) Contains(line int) bool {
	if line <= 0 || line/wordSize >= len(s.words) {
		return false
	}
	return s.words[line/wordSize]&(1<<uint(line%wordSize)) != 0
}

// ContainsAny returns true if any line between 'from' and 'to' (both inclusive) is in the set.
func (s *LineSet) ContainsAny(from int, to int) bool {
	for line := from; line <= to; line++ {
		if s.Contains(line) {
			return true
		}
	}
	return false
}

// Intersects returns true if both sets share at least one line.
func (s *LineSet) Intersects(other *LineSet) bool {
	if other == nil {
		return false
	}
	for i := 0; i < len(s.words) && i < len(other.words); i++ {
		if s.words[i]&other.words[i] != 0 {
			return true
		}
	}
	return false
}

// Size returns the number of lines in the set.
func (s *LineSet) Size() int {
	size := 0
	for _, word := range s.words {
		size += bits.OnesCount64(word)
	}
	return size
}

// IsEmpty returns true if the set contains no lines.
func (s *LineSet) IsEmpty() bool {
	for _, word := range s.words {
		if word != 0 {
			return false
		}
	}
	return true
}

// Each calls f for every line in ascending order.
func (s *LineSet) Each(f func(line int)) {
	for i, word := range s.words {
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			f(i*wordSize + bit)
			word &= word - 1
		}
	}
}

// Lines returns the lines in ascending order.
func (s *LineSet) Lines() []int {
	lines := make([]int, 0, s.Size())
	s.Each(func(line int) {
		lines = append(lines, line)
	})
	return lines
}

// Clone returns an independent copy of the set.
func (s *LineSet) Clone() *LineSet {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return &LineSet{words: words}
}

// Equal returns true if both sets contain exactly the same lines.
func (s *LineSet) Equal(other *LineSet) bool {
	if other == nil {
		return s.IsEmpty()
	}
	longer, shorter := s.words, other.words
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	for i, word := range longer {
		if i < len(shorter) {
			if word != shorter[i] {
				return false
			}
		} else if word != 0 {
			return false
		}
	}
	return true
}

// CompactToRanges returns the canonical range string: ascending, comma separated runs
// where a singleton is written as "n" and a run of consecutive lines as "start-end".
func (s *LineSet) CompactToRanges() string {
	var builder strings.Builder
	start, end := -1, -1
	flush := func() {
		if start < 0 {
			return
		}
		if builder.Len() > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.Itoa(start))
		if end != start {
			builder.WriteByte('-')
			builder.WriteString(strconv.Itoa(end))
		}
	}
	s.Each(func(line int) {
		if start >= 0 && line <= end+1 {
			end = line
			return
		}
		flush()
		start, end = line, line
	})
	flush()
	return builder.String()
}

// String returns the compacted range string.
func (s *LineSet) String() string {
	return s.CompactToRanges()
}

// Parse reads a compacted range string as produced by CompactToRanges.
// The empty string yields an empty set.
func Parse(ranges string) (*LineSet, error) {
	s := &LineSet{}
	if ranges == "" {
		return s, nil
	}
	for _, part := range strings.Split(ranges, ",") {
		bounds := strings.SplitN(part, "-", 2)
		from, err := parseLine(bounds[0])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid line range '%s'", part)
		}
		to := from
		if len(bounds) == 2 {
			to, err = parseLine(bounds[1])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid line range '%s'", part)
			}
		}
		if to < from {
			return nil, errors.Errorf("invalid line range '%s': end before start", part)
		}
		s.AddRange(from, to)
	}
	return s, nil
}

func parseLine(value string) (int, error) {
	line, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if line <= 0 {
		return 0, errors.Errorf("line %d is not positive", line)
	}
	if line > MaxLine {
		return 0, errors.Errorf("line %d exceeds the maximum line %d", line, MaxLine)
	}
	return line, nil
}

func (s *LineSet) grow(line int) {
	index := line / wordSize
	if index < len(s.words) {
		return
	}
	s.words = append(s.words, make([]uint64, index+1-len(s.words))...)
}

func (s *LineSet) trim() {
	n := len(s.words)
	for n > 0 && s.words[n-1] == 0 {
		n--
	}
	s.words = s.words[:n]
}
