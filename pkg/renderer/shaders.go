package renderer

// The cell dynamic buffer packs each instance's glyph id and both colors
// into a single uvec2 (§3.2, §4.4): word.x holds glyph_id in its low 16
// bits and the first two foreground bytes above it; word.y holds the third
// foreground byte followed by all three background bytes. Both shaders
// below unpack that layout directly rather than reading a second instance
// attribute, since one 8-byte VBO is all the cell dynamic buffer contains.
const vertexShaderSource = `#version 300 es
precision highp float;
precision highp int;

layout(location = 0) in vec2 in_pos;
layout(location = 1) in vec2 in_tex;
layout(location = 2) in uvec2 in_instance_pos;
layout(location = 3) in uvec2 in_packed;

layout(std140) uniform VertexParams {
	mat4 u_projection;
	vec2 u_cell_size;
};

flat out uint v_glyph_id;
flat out vec3 v_fg_color;
flat out vec3 v_bg_color;
out vec2 v_tex_coord;

void main() {
	vec2 cell_origin = floor(vec2(in_instance_pos) * u_cell_size + 0.5);
	vec2 screen_pos = cell_origin + in_pos * u_cell_size;
	gl_Position = u_projection * vec4(screen_pos, 0.0, 1.0);

	v_glyph_id = in_packed.x & 0xFFFFu;

	float fg_r = float((in_packed.x >> 16) & 0xFFu);
	float fg_g = float((in_packed.x >> 24) & 0xFFu);
	float fg_b = float(in_packed.y & 0xFFu);
	v_fg_color = vec3(fg_r, fg_g, fg_b) / 255.0;

	float bg_r = float((in_packed.y >> 8) & 0xFFu);
	float bg_g = float((in_packed.y >> 16) & 0xFFu);
	float bg_b = float((in_packed.y >> 24) & 0xFFu);
	v_bg_color = vec3(bg_r, bg_g, bg_b) / 255.0;

	v_tex_coord = in_tex;
}
`

// Color extraction happens entirely in the vertex shader above, not here:
// ANGLE on AMD/Qualcomm mishandles uint bit ops under mediump precision in
// fragment shaders, so by the time this stage runs the colors are already
// plain, interpolation-safe floats.
const fragmentShaderSource = `#version 300 es
precision highp float;
precision highp int;

flat in uint v_glyph_id;
flat in vec3 v_fg_color;
flat in vec3 v_bg_color;
in vec2 v_tex_coord;

layout(std140) uniform FragmentParams {
	vec4 u_underline;      // pos, thickness
	vec4 u_strikethrough;  // pos, thickness
	vec4 u_padding;        // x = padding fraction (inset on each side)
	uvec4 u_atlas;         // x = atlas mask, y = glyphs per layer
};

uniform sampler2DArray u_atlas_tex;

out vec4 out_color;

void main() {
	uint index = v_glyph_id & u_atlas.x;
	uint layer = index >> 5u;
	uint pos_in_layer = index & 0x1Fu;

	float inset = u_padding.x;
	vec2 sampled = mix(vec2(inset), vec2(1.0 - inset), v_tex_coord);
	float u = (float(pos_in_layer) + sampled.x) / float(u_atlas.y);
	vec3 uvw = vec3(u, sampled.y, float(layer));
	vec4 texel = texture(u_atlas_tex, uvw);

	bool is_emoji = (v_glyph_id & 0x1000u) != 0u;
	vec3 glyph_rgb = is_emoji ? texel.rgb : v_fg_color;
	float glyph_alpha = texel.a;

	float line_alpha = 0.0;
	if ((v_glyph_id & 0x2000u) != 0u) {
		float d = abs(v_tex_coord.y - u_underline.x);
		line_alpha = max(line_alpha, 1.0 - smoothstep(u_underline.y * 0.5, u_underline.y, d));
	}
	if ((v_glyph_id & 0x4000u) != 0u) {
		float d = abs(v_tex_coord.y - u_strikethrough.x);
		line_alpha = max(line_alpha, 1.0 - smoothstep(u_strikethrough.y * 0.5, u_strikethrough.y, d));
	}

	float alpha = max(glyph_alpha, line_alpha);
	vec3 fg = is_emoji ? glyph_rgb : v_fg_color;
	out_color = vec4(mix(v_bg_color, fg, alpha), 1.0);
}
`
