package heading

// AssignLevel maps the ratio of fontSize to the body size onto a heading
// level. An unknown or zero body size yields H3.
func AssignLevel(fontSize float64, style DocumentStyle, cfg Config) Level {
	if !style.Known || style.BodyFontSize <= 0 {
		return H3
	}
	ratio := fontSize / style.BodyFontSize
	switch {
	case ratio >= cfg.H1Ratio:
		return H1
	case ratio >= cfg.H2Ratio:
		return H2
	default:
		return H3
	}
}
