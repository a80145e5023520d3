package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdown_ReverseOrderOnce(t *testing.T) {
	var order []int
	RegisterClose(func() { order = append(order, 1) })
	RegisterClose(func() { order = append(order, 2) })

	Shutdown()
	Shutdown()

	assert.Equal(t, []int{2, 1}, order)
}
