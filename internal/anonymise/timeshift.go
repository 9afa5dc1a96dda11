package anonymise

import (
	"fmt"
	"strconv"
)

// ShiftTime subtracts a constant hour offset from a DICOM Time String
// (VR TM, "HHMMSS.FFFFFF", only HH required), wrapping around midnight.
// Grounded on pixl_dcmd/src/pixl_dcmd/main.py's subtract_time_const — the
// project-configured offset hides the true time of day without destroying
// the relative ordering of tags within a study (study/series/acquisition/
// image times all shift by the same amount).
func ShiftTime(currTime string, offsetHours int) (string, error) {
	if len(currTime) < 2 {
		return "", fmt.Errorf("anonymise: time value %q too short to shift", currTime)
	}
	hour, err := strconv.Atoi(currTime[0:2])
	if err != nil {
		return "", fmt.Errorf("anonymise: time value %q: %w", currTime, err)
	}

	shifted := hour - offsetHours
	if shifted < 0 {
		shifted += 24
	}

	return fmt.Sprintf("%02d%s", shifted, currTime[2:]), nil
}
