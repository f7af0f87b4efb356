package ui

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/stretchr/testify/assert"
)

func newTestRects() (*canvas.Rectangle, *canvas.Rectangle) {
	r1 := canvas.NewRectangle(color.Black)
	r1.SetMinSize(fyne.NewSize(100, 20))
	r2 := canvas.NewRectangle(color.Black)
	r2.SetMinSize(fyne.NewSize(50, 30))
	return r1, r2
}

func TestSplitLayoutMinSize(t *testing.T) {
	r1, r2 := newTestRects()
	sl := &splitLayout{widget1: r1, widget2: r2, proportion: oneThird, alignment: alignLeft}

	min := sl.MinSize(nil)

	assert.Equal(t, float32(150), min.Width)
	assert.Equal(t, float32(30), min.Height)
}

func TestSplitLayoutOneThird(t *testing.T) {
	r1, r2 := newTestRects()
	sl := &splitLayout{widget1: r1, widget2: r2, proportion: oneThird, alignment: alignLeft}

	sl.Layout(nil, fyne.NewSize(300, 40))

	assert.Equal(t, float32(100), r1.Size().Width)
	assert.Equal(t, float32(200), r2.Size().Width)
	assert.Equal(t, float32(0), r1.Position().X)
	assert.Equal(t, float32(100), r2.Position().X)
}

func TestSplitLayoutOpposed(t *testing.T) {
	r1, r2 := newTestRects()
	sl := &splitLayout{widget1: r1, widget2: r2, proportion: twoThirds, alignment: alignOpposed}

	sl.Layout(nil, fyne.NewSize(300, 40))

	assert.Equal(t, float32(200), r1.Size().Width)
	assert.Equal(t, float32(100), r2.Size().Width)
	assert.Equal(t, float32(0), r1.Position().X)
	assert.Equal(t, float32(200), r2.Position().X)
}

func TestSplitLayoutHalfCentered(t *testing.T) {
	r1, r2 := newTestRects()
	sl := &splitLayout{widget1: r1, widget2: r2, proportion: half, alignment: alignCenter}

	sl.Layout(nil, fyne.NewSize(300, 40))

	assert.Equal(t, float32(150), r1.Size().Width)
	assert.Equal(t, float32(150), r2.Size().Width)
	assert.Equal(t, float32(0), r1.Position().X)
	assert.Equal(t, float32(150), r2.Position().X)
}
