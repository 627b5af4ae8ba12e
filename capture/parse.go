package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Parse decodes a capture payload. The input must carry a root element;
// everything else is optional and is defaulted by Normalize. Never mutates
// data.
func Parse(data []byte, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// auto layout defaults to on; an options block may switch it off
	doc := Document{Options: ImportOptions{ApplyAutoLayout: true}}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode capture payload: %w", err)
	}
	if doc.Root == nil {
		return nil, errors.New("capture payload has no root element")
	}

	doc.Normalize()

	log.Debug("Capture payload decoded",
		zap.Int("bytes", len(data)),
		zap.Int("elements", doc.Root.Count()),
		zap.Int("images", len(doc.Assets.Images)),
		zap.Int("svgs", len(doc.Assets.SVGs)))
	return &doc, nil
}

// UnmarshalJSON keeps unrecognized option keys instead of dropping them so
// they can be passed through to document metadata.
func (o *ImportOptions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		switch key {
		case "applyAutoLayout":
			if err := json.Unmarshal(val, &o.ApplyAutoLayout); err != nil {
				return fmt.Errorf("option %q: %w", key, err)
			}
		case "enableDebugMode":
			if err := json.Unmarshal(val, &o.EnableDebugMode); err != nil {
				return fmt.Errorf("option %q: %w", key, err)
			}
		default:
			if o.Extra == nil {
				o.Extra = make(map[string]string)
			}
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				s = string(val)
			}
			o.Extra[key] = s
		}
	}
	return nil
}

// Count returns the number of elements in the subtree including the receiver.
func (el *ElementNode) Count() int {
	if el == nil {
		return 0
	}
	n := 1
	for _, c := range el.Children {
		n += c.Count()
	}
	return n
}

// Normalize fills CSS initial values in so downstream code never deals with
// missing fields: display block, static position, row direction, flex-start
// main axis, stretch cross axis. Missing layout records become zero-sized
// blocks rather than failures.
func (doc *Document) Normalize() {
	normalizeElement(doc.Root)
}

func normalizeElement(el *ElementNode) {
	if el == nil {
		return
	}
	if el.Layout == nil {
		el.Layout = &Layout{}
	}
	l := el.Layout
	if l.Display == "" {
		l.Display = "block"
	}
	if l.Position == "" {
		l.Position = "static"
	}
	if l.FlexDirection == "" {
		l.FlexDirection = "row"
	}
	if l.JustifyContent == "" {
		l.JustifyContent = "flex-start"
	}
	if l.AlignItems == "" {
		l.AlignItems = "stretch"
	}
	if l.FlexWrap == "" {
		l.FlexWrap = "nowrap"
	}
	if el.Kind == "" {
		el.Kind = KindFrame
	}
	for _, c := range el.Children {
		normalizeElement(c)
	}
}

// FlexGrowValue parses the captured flex-grow string, zero when absent.
func (l *Layout) FlexGrowValue() float64 {
	if l == nil || l.FlexGrow == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(l.FlexGrow), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
