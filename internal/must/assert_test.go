package must

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubExit(t *testing.T) *[]int {
	t.Helper()
	codes := new([]int)
	exit = func(code int) { *codes = append(*codes, code) }
	t.Cleanup(func() { exit = os.Exit })
	return codes
}

func TestAssert(t *testing.T) {
	codes := stubExit(t)

	Assert(true, "holds")
	NoError(nil)
	assert.Empty(t, *codes)

	Assert(false, "embedded table is empty", "table", "transport")
	NoError(errors.New("decode failed"), "document", "factors.yaml")
	assert.Equal(t, []int{1, 1}, *codes)
}
