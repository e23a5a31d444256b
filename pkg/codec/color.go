package codec

import "github.com/lucasb-eyer/go-colorful"

// cssColor normalizes a user color to #rrggbb, or returns def. Only hex
// colors are accepted so attribute values never carry markup.
func cssColor(s, def string) string {
	if s == "" {
		return def
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return def
	}
	return c.Clamped().Hex()
}
