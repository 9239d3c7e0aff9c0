package heading

// FeatureNames lists the classifier features in vector order.
var FeatureNames = []string{
	"font_size",
	"is_bold",
	"x",
	"y",
	"char_length",
	"body_font_size",
	"font_ratio",
}

// EffectiveBold treats a color that differs from the body color as emphasis
// equal to bold.
func EffectiveBold(b Block, style DocumentStyle) bool {
	return b.Bold || b.Color != style.BodyColor
}

// Features returns the classifier input for b. font_ratio is zero when the
// body size is unknown.
func Features(b Block, style DocumentStyle) []float64 {
	var body, ratio float64
	if style.Known {
		body = style.BodyFontSize
	}
	if body > 0 {
		ratio = b.FontSize / body
	}
	bold := 0.0
	if EffectiveBold(b, style) {
		bold = 1
	}
	return []float64{
		b.FontSize,
		bold,
		float64(b.X),
		float64(b.Y),
		float64(b.CharLength),
		body,
		ratio,
	}
}
