package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordLayer struct {
	name    string
	log     *[]string
	handles bool
}

func (l *recordLayer) OnAttach(e *Engine)             {}
func (l *recordLayer) OnDetach(e *Engine)             {}
func (l *recordLayer) OnUpdate(e *Engine, dt float64) {}
func (l *recordLayer) OnRender(e *Engine, alpha float64) {
	*l.log = append(*l.log, l.name)
}
func (l *recordLayer) OnEvent(e *Engine, ev Event) bool {
	*l.log = append(*l.log, l.name)
	return l.handles
}

func TestLayerStackRenderOrder(t *testing.T) {
	var log []string
	var ls LayerStack
	ls.Push(&recordLayer{name: "world", log: &log})
	ls.Push(&recordLayer{name: "overlay", log: &log})

	ls.ForEach(func(l Layer) { l.OnRender(nil, 0) })
	assert.Equal(t, []string{"world", "overlay"}, log, "layers render back to front in push order")
}

func TestLayerStackEventPropagation(t *testing.T) {
	var log []string
	var ls LayerStack
	ls.Push(&recordLayer{name: "world", log: &log})
	ls.Push(&recordLayer{name: "overlay", log: &log, handles: true})

	ls.ForEachReverse(func(l Layer) bool { return l.OnEvent(nil, EventCloseRequested{}) })
	assert.Equal(t, []string{"overlay"}, log, "a handling layer stops propagation")

	log = nil
	var ls2 LayerStack
	ls2.Push(&recordLayer{name: "world", log: &log})
	ls2.Push(&recordLayer{name: "overlay", log: &log})
	ls2.ForEachReverse(func(l Layer) bool { return l.OnEvent(nil, EventCloseRequested{}) })
	assert.Equal(t, []string{"overlay", "world"}, log, "unhandled events reach every layer top-down")
}

func TestLayerStackPop(t *testing.T) {
	var log []string
	var ls LayerStack
	a := &recordLayer{name: "a", log: &log}
	ls.Push(a)

	got, ok := ls.Pop()
	assert.True(t, ok)
	assert.Same(t, a, got)

	_, ok = ls.Pop()
	assert.False(t, ok)
}
