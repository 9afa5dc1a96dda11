package anonymise

import "fmt"

// Violation describes one way an anonymised dataset fails to conform to
// its project's tag scheme.
type Violation struct {
	Tag    Tag
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("(0x%04x,0x%04x): %s", v.Tag.Group, v.Tag.Element, v.Reason)
}

// Validate checks a dataset (before or after anonymisation) against scheme and reports
// every violation found, rather than stopping at the first. This is the
// supplemented conformance-check feature (SPEC_FULL.md §C.4): a minimal
// structural diff, not a full DICOM dictionary validation, since no DICOM
// dictionary library exists anywhere in the retrieval pack — a hand-rolled
// structural check is the only option available here, not a stand-in for
// one the ecosystem already provides.
func Validate(ds Dataset, scheme Scheme) []Violation {
	var violations []Violation
	validateRecursive(ds, scheme, &violations)
	return violations
}

func validateRecursive(ds Dataset, scheme Scheme, violations *[]Violation) {
	for tag, el := range ds {
		entry, ok := scheme.Lookup(tag)
		if !ok {
			*violations = append(*violations, Violation{Tag: tag, Reason: "present but not named by the tag scheme"})
			continue
		}
		if entry.Op == OpDelete {
			*violations = append(*violations, Violation{Tag: tag, Reason: "present but scheme op is delete"})
			continue
		}
		if entry.Op == OpNumRange && (len(el.Value) != 4 || el.Value[3] != 'Y') {
			*violations = append(*violations, Violation{Tag: tag, Reason: fmt.Sprintf("num-range value %q is not a clamped age", el.Value)})
		}
		for _, item := range el.Items {
			validateRecursive(item, scheme, violations)
		}
	}
}
