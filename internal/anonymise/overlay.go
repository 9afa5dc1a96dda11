package anonymise

// RemoveOverlays deletes every element belonging to a DICOM overlay plane
// group. Overlay data lives in the repeating group range 0x6000-0x601E
// (even groups only, up to 16 overlay planes per part 3 C.9.2), and often
// embeds burned-in identifying pixel data, so it is stripped unconditionally
// regardless of the project tag scheme. Grounded on
// pixl_dcmd/src/pixl_dcmd/main.py's remove_overlays.
func RemoveOverlays(ds Dataset) {
	for group := uint16(0x6000); group <= 0x601E; group += 2 {
		for tag := range ds {
			if tag.Group == group {
				delete(ds, tag)
			}
		}
	}
}
