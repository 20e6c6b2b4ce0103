package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feedup/feedup-backend/internal/remote"
)

func TestPagerScopesAreIndependent(t *testing.T) {
	p := NewPager()
	a := &remote.Cursor{}
	b := &remote.Cursor{}

	p.Advance("feed", a)
	p.Advance("reviews", b)

	assert.Same(t, a, p.Cursor("feed"))
	assert.Same(t, b, p.Cursor("reviews"))
	assert.Nil(t, p.Cursor("unknown"))

	p.Reset("feed")
	assert.Nil(t, p.Cursor("feed"))
	assert.Same(t, b, p.Cursor("reviews"))
}

func TestPagerAdvanceNilKeepsCursor(t *testing.T) {
	p := NewPager()
	c := &remote.Cursor{}
	p.Advance("feed", c)

	// An empty page must not wipe the position.
	p.Advance("feed", nil)
	assert.Same(t, c, p.Cursor("feed"))
}

func TestPagerResetAll(t *testing.T) {
	p := NewPager()
	p.Advance("a", &remote.Cursor{})
	p.Advance("b", &remote.Cursor{})

	p.ResetAll()
	assert.Nil(t, p.Cursor("a"))
	assert.Nil(t, p.Cursor("b"))
}
