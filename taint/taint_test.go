package taint_test

import (
	"testing"

	"github.com/lookbusy1344/x86-symex/taint"
	"github.com/stretchr/testify/assert"
)

type bit struct{ v bool }

func (b *bit) Tainted() bool   { return b.v }
func (b *bit) SetTainted(v bool) { b.v = v }

func TestUnionIsOr(t *testing.T) {
	dst := &bit{v: false}
	a := &bit{v: false}
	b := &bit{v: true}
	taint.Union(dst, a, b)
	assert.True(t, dst.Tainted())
}

func TestUnionPreservesDstTaint(t *testing.T) {
	dst := &bit{v: true} // union folds in dst's own current bit too
	a := &bit{v: false}
	taint.Union(dst, a)
	assert.True(t, dst.Tainted(), "union must also preserve dst's prior taint")
}

func TestAssignOverwrites(t *testing.T) {
	dst := &bit{v: true}
	src := &bit{v: false}
	taint.Assign(dst, src)
	assert.False(t, dst.Tainted())
}
