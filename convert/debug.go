package convert

import (
	"strings"

	"hfc/scene"
	"hfc/utils/debug"
)

// dumpSceneTree renders a human-readable outline of the materialized scene for
// troubleshooting. Stored in the debug report when the capture requested debug
// mode or a report is being collected.
func dumpSceneTree(doc *scene.Document) string {
	tw := debug.NewTreeWriter()
	dumpNode(tw, doc.Root, 0)
	if imgs := doc.Images(); len(imgs) > 0 {
		tw.Line(0, "images: %d", len(imgs))
		for _, ref := range imgs {
			tw.Line(1, "%s %s %dx%d (%d bytes)", ref.Hash, ref.Format, ref.Width, ref.Height, len(ref.Data))
		}
	}
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *scene.Node, depth int) {
	if n == nil {
		return
	}

	var attrs []string
	if n.Positioned {
		attrs = append(attrs, "abs")
	}
	if n.Flow != nil {
		attrs = append(attrs, "flow")
	}
	if n.Layout != nil {
		attrs = append(attrs, strings.ToLower(n.Layout.Mode.String()))
	}
	if n.Rasterized {
		attrs = append(attrs, "rasterized")
	}
	if n.PlaceholderFor != "" {
		attrs = append(attrs, "placeholder")
	}
	suffix := ""
	if len(attrs) > 0 {
		suffix = " [" + strings.Join(attrs, ",") + "]"
	}

	tw.Line(depth, "%s %q (%g,%g) %gx%g fills=%d effects=%d%s",
		n.Kind, n.Name, n.X, n.Y, n.Width, n.Height, len(n.Fills), len(n.Effects), suffix)
	if n.Text != "" {
		tw.TextBlock(depth+1, "text", n.Text)
	}
	for _, c := range n.Children {
		dumpNode(tw, c, depth+1)
	}
}
