package natural_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/normano/c5store/internal/natural"
)

func TestItemOrdering(t *testing.T) {
	in := []string{"item10", "item2", "item1"}
	sort.Slice(in, func(i, j int) bool { return natural.Less(in[i], in[j]) })
	assert.Equal(t, []string{"item1", "item2", "item10"}, in)
}

func TestCaseInsensitive(t *testing.T) {
	assert.True(t, natural.Compare("Apple", "banana") < 0)
	assert.Equal(t, 0, natural.Compare("Apple", "apple"))
}

func TestEqualLengthLexicographic(t *testing.T) {
	assert.True(t, natural.Less("aab", "aac"))
}
