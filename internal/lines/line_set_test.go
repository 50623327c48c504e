package lines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactToRanges(t *testing.T) {
	var testCases = []struct {
		lines    []int
		expected string
	}{
		{[]int{1, 3, 4, 6, 7, 10}, "1,3-4,6-7,10"},
		{[]int{}, ""},
		{[]int{42}, "42"},
		{[]int{5, 4, 3, 2, 1}, "1-5"},
		{[]int{63, 64, 65}, "63-65"},
		{[]int{1, 1, 2, 2}, "1-2"},
		{[]int{0, -1, 7}, "7"},
		{[]int{100, 1000, 1001}, "100,1000-1001"},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, New(testCase.lines...).CompactToRanges(), "%v", testCase.lines)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, ranges := range []string{"", "1", "1,3-4,6-7,10", "63-65,127-129,1000"} {
		set, err := Parse(ranges)
		require.NoError(t, err, ranges)
		assert.Equal(t, ranges, set.CompactToRanges())
	}

	set := New(2, 3, 9, 64, 65, 66, 300)
	parsed, err := Parse(set.CompactToRanges())
	require.NoError(t, err)
	assert.True(t, set.Equal(parsed))
}

func TestParseInvalid(t *testing.T) {
	for _, ranges := range []string{"a", "1,,2", "4-2", "0", "-3", "1 - 2", "1,", "1048577", "1-1048577", "1152921504606846976"} {
		_, err := Parse(ranges)
		assert.Error(t, err, ranges)
	}
}

func TestMergeAndRemoveAll(t *testing.T) {
	set := New(1, 2)
	set.Merge(New(2, 3, 200))
	assert.Equal(t, []int{1, 2, 3, 200}, set.Lines())
	assert.Equal(t, 4, set.Size())

	set.RemoveAll(New(2, 200))
	assert.Equal(t, "1,3", set.CompactToRanges())

	set.RemoveAll(New(1, 3))
	assert.True(t, set.IsEmpty())
	assert.Equal(t, 0, set.Size())
}

func TestMergeIsOrderIndependent(t *testing.T) {
	contributions := []*LineSet{New(1, 2), New(2, 3), New(70, 71), New(5)}

	forward := &LineSet{}
	for _, contribution := range contributions {
		forward.Merge(contribution)
	}
	backward := &LineSet{}
	for i := len(contributions) - 1; i >= 0; i-- {
		backward.Merge(contributions[i])
	}
	grouped := New()
	left := contributions[0].Clone()
	left.Merge(contributions[1])
	right := contributions[2].Clone()
	right.Merge(contributions[3])
	grouped.Merge(right)
	grouped.Merge(left)

	assert.Equal(t, "1-3,5,70-71", forward.CompactToRanges())
	assert.Equal(t, forward.CompactToRanges(), backward.CompactToRanges())
	assert.Equal(t, forward.CompactToRanges(), grouped.CompactToRanges())
}

func TestContainsAndIntersects(t *testing.T) {
	set := &LineSet{}
	set.AddRange(10, 12)

	assert.True(t, set.Contains(11))
	assert.False(t, set.Contains(13))
	assert.False(t, set.Contains(0))
	assert.False(t, set.Contains(5000))
	assert.True(t, set.ContainsAny(1, 10))
	assert.False(t, set.ContainsAny(13, 20))
	assert.True(t, set.Intersects(New(12, 99)))
	assert.False(t, set.Intersects(New(9, 13)))
	assert.False(t, set.Intersects(nil))
}

func TestCloneIsIndependent(t *testing.T) {
	set := New(1)
	clone := set.Clone()
	clone.Add(2)

	assert.Equal(t, "1", set.CompactToRanges())
	assert.Equal(t, "1-2", clone.CompactToRanges())
	assert.False(t, set.Equal(clone))
	assert.True(t, New(3).Equal(New(3, 3)))
}

func TestLinesBeyondMaximumAreIgnored(t *testing.T) {
	set := New(3, MaxLine+1, 1<<60)
	assert.Equal(t, "3", set.CompactToRanges())

	set.AddRange(MaxLine-1, 1<<40)
	assert.Equal(t, []int{3, MaxLine - 1, MaxLine}, set.Lines())
	assert.False(t, set.Contains(1<<60))
}
