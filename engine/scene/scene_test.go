package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScene(t *testing.T) {
	s := NewScene("empty")
	assert.Equal(t, "empty", s.Name())
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Meshes())
	assert.Empty(t, s.Materials())
	assert.Zero(t, s.PointLights().Len())
	assert.Equal(t, [3]float32{}, s.AmbientLight())
	require.NotNil(t, s.Camera())

	s = NewScene("pending", WithLoaded(false))
	assert.False(t, s.Loaded())
}

func TestNewScene_Options(t *testing.T) {
	cam := camera.NewCamera(camera.WithFar(500))
	mesh := Mesh{Name: "cube", Material: 1, Transform: common.Identity4()}
	s := NewScene("options",
		WithCamera(cam),
		WithCamera(nil),
		WithMeshes(mesh),
		WithMeshes(mesh),
		WithMaterials(material.NewMaterial(material.WithName("a"))),
		WithMaterials(material.NewMaterial(material.WithName("b"))),
		WithPointLights(light.NewPointLight(), light.NewPointLight()),
		WithAmbientLight(0.1, 0.2, 0.3),
	)

	assert.Same(t, cam, s.Camera())
	assert.Len(t, s.Meshes(), 2)
	require.Len(t, s.Materials(), 2)
	assert.Equal(t, "b", s.Materials()[1].Name())
	assert.Equal(t, 2, s.PointLights().Len())
	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, s.AmbientLight())
}

func TestMaterialOf(t *testing.T) {
	s := NewScene("materials", WithMaterials(
		material.NewMaterial(material.WithName("first")),
		material.NewMaterial(material.WithName("second")),
	))

	tests := []struct {
		index  int
		want   string
		wantOK bool
	}{
		{0, "first", true},
		{1, "second", true},
		{2, "", false},
		{-1, "", false},
	}
	for _, tt := range tests {
		m, ok := MaterialOf(s, Mesh{Material: tt.index})
		assert.Equal(t, tt.wantOK, ok, "index %d", tt.index)
		if !tt.wantOK {
			assert.Nil(t, m)
			continue
		}
		assert.Equal(t, tt.want, m.Name())
	}
}
