package renderer

// voxelVertexSource decodes the packed vertex word. Positions are stored
// scaled to integers; u_scale undoes that.
const voxelVertexSource = `
#version 410 core

layout (location = 0) in uint a_packed;
layout (location = 1) in float a_texcoord;
layout (location = 2) in vec3 i_position;
layout (location = 3) in float i_rotation;

uniform mat4 u_view_proj;
uniform float u_scale;

out float v_texcoord;
flat out uint v_normal;

float axis(uint b) {
	float m = float(b & 0x7Fu);
	return (b & 0x80u) != 0u ? -m : m;
}

void main() {
	vec3 local = vec3(
		axis(a_packed & 0xFFu),
		axis((a_packed >> 8) & 0xFFu),
		axis((a_packed >> 16) & 0xFFu)) / u_scale;

	float c = cos(i_rotation);
	float s = sin(i_rotation);
	mat3 rot = mat3(c, 0.0, -s, 0.0, 1.0, 0.0, s, 0.0, c);

	gl_Position = u_view_proj * vec4(rot * local + i_position, 1.0);
	v_texcoord = a_texcoord;
	v_normal = (a_packed >> 24) & 0x7u;
}
`

// voxelFragmentSource samples the palette strip and darkens faces by
// direction so cube edges stay readable.
const voxelFragmentSource = `
#version 410 core

in float v_texcoord;
flat in uint v_normal;

uniform sampler2D u_palette;

out vec4 frag_color;

const float FACE_SHADE[6] = float[6](0.8, 0.8, 1.0, 0.5, 0.65, 0.65);

void main() {
	vec4 color = texture(u_palette, vec2(v_texcoord, 0.5));
	if (color.a < 0.5) {
		discard;
	}
	frag_color = vec4(color.rgb * FACE_SHADE[min(v_normal, 5u)], 1.0);
}
`
