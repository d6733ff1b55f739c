package randid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var alnum = regexp.MustCompile(`^[a-z0-9]*$`)

func TestGenerate(t *testing.T) {
	for _, n := range []int{0, 1, 6, 12, 32} {
		id := Generate(n)
		assert.Len(t, id, n)
		assert.Regexp(t, alnum, id)
	}
	assert.Empty(t, Generate(-3))
}

func TestGenerate_Distinct(t *testing.T) {
	seen := map[string]struct{}{}
	for range 200 {
		seen[Generate(10)] = struct{}{}
	}
	assert.Len(t, seen, 200)
}
