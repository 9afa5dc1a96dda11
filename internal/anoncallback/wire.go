// Package anoncallback is the HTTP surface the anonymising store's
// on-stable-study hook calls into (spec §4.6): it decodes the wire
// representation of one DICOM instance, drives internal/anonymise.Engine
// end to end (gates, overlay removal, whitelist + scheme application,
// pseudo UID mint), and returns the anonymised result.
//
// internal/anonymise cannot depend on internal/projectconfig (the reverse
// dependency already exists, for the Scheme type embedded in
// projectconfig.Project), so this package sits above both and does the
// wiring neither can do on its own.
package anoncallback

import "github.com/UCLH-Foundry/PIXL/internal/anonymise"

// WireElement is the JSON-over-HTTP representation of one DICOM data
// element, mirroring internal/anonymise.Element's shape one level removed
// from its map-keyed Dataset form so it can round-trip through JSON.
type WireElement struct {
	Group   uint16        `json:"group"`
	Element uint16        `json:"element"`
	VR      string        `json:"vr"`
	Value   string        `json:"value"`
	Items   [][]WireElement `json:"items,omitempty"`
}

// toDataset converts the wire form into an anonymise.Dataset.
func toDataset(elements []WireElement) anonymise.Dataset {
	ds := make(anonymise.Dataset, len(elements))
	for _, w := range elements {
		el := &anonymise.Element{
			Tag:   anonymise.Tag{Group: w.Group, Element: w.Element},
			VR:    anonymise.VR(w.VR),
			Value: w.Value,
		}
		for _, item := range w.Items {
			el.Items = append(el.Items, toDataset(item))
		}
		ds.Set(el)
	}
	return ds
}

// fromDataset converts ds back into its wire form.
func fromDataset(ds anonymise.Dataset) []WireElement {
	out := make([]WireElement, 0, len(ds))
	for _, el := range ds {
		w := WireElement{
			Group:   el.Tag.Group,
			Element: el.Tag.Element,
			VR:      string(el.VR),
			Value:   el.Value,
		}
		for _, item := range el.Items {
			w.Items = append(w.Items, fromDataset(item))
		}
		out = append(out, w)
	}
	return out
}
