package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/layout"
)

func TestLoadBuiltin(t *testing.T) {
	data, err := Load("embed:Go-Regular.ttf")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = Load("Inter-Regular.ttf")
	assert.Error(t, err)
}

func TestBuiltinFile(t *testing.T) {
	assert.Equal(t, "Go-Regular.ttf", BuiltinFile("Go", false, false))
	assert.Equal(t, "Go-BoldItalic.ttf", BuiltinFile("Unknown", true, true))
	assert.Equal(t, "Go-Mono.ttf", BuiltinFile("go mono", false, false))
	assert.Equal(t, "Go-Mono-Italic.ttf", BuiltinFile("Go Mono", false, true))
}

func TestRegistryRefcounting(t *testing.T) {
	r := NewRegistry()
	spec := layout.FontSpec{Family: "Go", Size: 12}
	a := r.Font(spec)
	b := r.Font(spec)
	assert.Equal(t, 1, r.Live())
	assert.Same(t, Face(a), Face(b))

	c := a.Retain()
	a.Release()
	b.Release()
	assert.Equal(t, 1, r.Live())
	c.Release()
	assert.Equal(t, 0, r.Live())
}

func TestBasicRegistryMetrics(t *testing.T) {
	r := NewBasicRegistry()
	f := r.Font(layout.FontSpec{Family: "Go", Size: 30})
	defer f.Release()
	s := r.Device(false).Begin()
	defer s.End()

	assert.Equal(t, 11.0, s.Ascent(f))
	assert.Equal(t, 2.0, s.Descent(f))
	assert.Equal(t, 21.0, s.MeasureText(f, "abc"))
	assert.Equal(t, []float64{7, 14, 21}, s.CharOffsets(f, "abc"))
	assert.Equal(t, 7.0, s.CharWidth(f, 'x'))
	assert.False(t, s.SnapToPixels())
	assert.True(t, r.Device(true).Begin().SnapToPixels())
}

func TestOpenTypeMetrics(t *testing.T) {
	r := NewRegistry()
	f := r.Font(layout.FontSpec{Family: "Go", Size: 12})
	defer f.Release()
	s := r.Device(false).Begin()

	assert.Greater(t, s.Ascent(f), 0.0)
	assert.Greater(t, s.Descent(f), 0.0)
	w := s.MeasureText(f, "Hello")
	require.Greater(t, w, 0.0)
	offs := s.CharOffsets(f, "Hello")
	require.Len(t, offs, 5)
	assert.InDelta(t, w, offs[4], 0.01)

	big := r.Font(layout.FontSpec{Family: "Go", Size: 24})
	defer big.Release()
	assert.InDelta(t, 2*w, s.MeasureText(big, "Hello"), 0.2)
}

func TestRegisterRejectsGarbage(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("Broken", false, false, []byte("not a font")))

	data, err := Load("Go-Mono.ttf")
	require.NoError(t, err)
	require.NoError(t, r.Register("Code", false, false, data))
	assert.Equal(t, data, r.TTF("code", false, false))
}
