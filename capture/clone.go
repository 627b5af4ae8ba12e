package capture

// Clone returns a deep copy of the subtree. The conversion core annotates
// working copies only - caller data is never mutated in place.
func (el *ElementNode) Clone() *ElementNode {
	if el == nil {
		return nil
	}
	out := *el

	if el.Layout != nil {
		l := *el.Layout
		if el.Layout.ZIndex != nil {
			z := *el.Layout.ZIndex
			l.ZIndex = &z
		}
		out.Layout = &l
	}
	if el.Border != nil {
		b := *el.Border
		out.Border = &b
	}
	if el.Corners != nil {
		c := *el.Corners
		out.Corners = &c
	}
	if el.TextStyle != nil {
		ts := *el.TextStyle
		out.TextStyle = &ts
	}
	if el.Opacity != nil {
		o := *el.Opacity
		out.Opacity = &o
	}

	out.Fills = append([]Fill(nil), el.Fills...)
	out.Backgrounds = append([]Background(nil), el.Backgrounds...)
	out.Effects = append([]Effect(nil), el.Effects...)
	out.Classes = append([]string(nil), el.Classes...)
	if el.Meta != nil {
		out.Meta = make(map[string]string, len(el.Meta))
		for k, v := range el.Meta {
			out.Meta[k] = v
		}
	}

	out.Children = make([]*ElementNode, 0, len(el.Children))
	for _, c := range el.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return &out
}
