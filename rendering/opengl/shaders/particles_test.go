package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticleVertexSource(t *testing.T) {
	src := ParticleVertexSource()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(src), "#version 410 core"))
	assert.Contains(t, src, "layout(location = 0) in vec3 position;")
	assert.Contains(t, src, "layout(location = 3) in float distanceToTarget;")
	assert.Contains(t, src, "gl_PointSize = 8.0000 * sizeHover * (10.0000 / -mvPosition.z);")
	assert.NotContains(t, src, "%!")
}

func TestParticleFragmentSource(t *testing.T) {
	src := ParticleFragmentSource()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(src), "#version 410 core"))
	assert.Contains(t, src, "if (shape == 1) {")
	assert.Contains(t, src, "} else if (shape == 2) {")
	assert.Contains(t, src, "} else if (shape == 3) {")
	assert.Contains(t, src, "alpha * 0.8000")
	assert.Contains(t, src, "smoothstep(0.8, 0.0, vDistance) + vNoise * 0.2")
	assert.NotContains(t, src, "%!")
}
