package shaders

import (
	"fmt"

	"particlesphere/core"
	"particlesphere/rendering"
)

// Vertex attribute locations of the particle program
const (
	AttribPosition = 0
	AttribStrength = 1
	AttribNoise    = 2
	AttribDistance = 3
)

// ParticleVertexSource projects the CPU-computed point positions and sizes
// each point by attraction strength and view depth
func ParticleVertexSource() string {
	return fmt.Sprintf(`
#version 410 core

layout(location = %d) in vec3 position;
layout(location = %d) in float strength;
layout(location = %d) in float noiseVal;
layout(location = %d) in float distanceToTarget;

uniform mat4 modelView;
uniform mat4 projection;

out float vDistance;
out float vNoise;

void main() {
    vec4 mvPosition = modelView * vec4(position, 1.0);
    gl_Position = projection * mvPosition;

    float sizeHover = 1.0 + strength * 1.5;
    gl_PointSize = %.4f * sizeHover * (%.4f / -mvPosition.z);

    vDistance = distanceToTarget;
    vNoise = noiseVal;
}
`, AttribPosition, AttribStrength, AttribNoise, AttribDistance, rendering.BaseSize, rendering.Attenuation)
}

// ParticleFragmentSource applies the shape mask and the base-to-highlight
// color blend
func ParticleFragmentSource() string {
	return fmt.Sprintf(`
#version 410 core

uniform vec3 colorBase;
uniform vec3 colorHighlight;
uniform int shape;

in float vDistance;
in float vNoise;

out vec4 fragColor;

void main() {
    vec2 coord = gl_PointCoord - vec2(0.5);
    float r = length(coord);
    float alpha = 0.0;

    if (shape == %d) {
        float d = max(abs(coord.x), abs(coord.y));
        if (d > 0.5) discard;
        alpha = 1.0 - smoothstep(0.4, 0.5, d);
    } else if (shape == %d) {
        float d = abs(coord.x) + abs(coord.y);
        if (d > 0.5) discard;
        alpha = 1.0 - smoothstep(0.4, 0.5, d);
    } else if (shape == %d) {
        if (r > 0.5) discard;
        alpha = 1.0 - smoothstep(0.1, 0.15, abs(r - 0.35));
    } else {
        if (r > 0.5) discard;
        alpha = 1.0 - smoothstep(0.3, 0.5, r);
    }

    float mixFactor = clamp(smoothstep(0.8, 0.0, vDistance) + vNoise * 0.2, 0.0, 1.0);
    vec3 color = mix(colorBase, colorHighlight, mixFactor);
    fragColor = vec4(color, alpha * %.4f);
}
`, core.ShapeSquare, core.ShapeDiamond, core.ShapeRing, rendering.AlphaScale)
}

// CompileParticleProgram builds the point sprite program. A GL context
// must be current.
func CompileParticleProgram() (uint32, error) {
	program, err := newProgram(ParticleVertexSource(), ParticleFragmentSource())
	if err != nil {
		return 0, fmt.Errorf("particle program: %w", err)
	}
	return program, nil
}
