package engine

// Op enumerates the operations an engine exposes.
type Op uint8

const (
	OpUnknown Op = iota
	OpValidate
	OpEstimateAge
	OpEstimateAgeStdDev
	OpEnrollOneFA
	OpPredictOneFA
	OpUserDelete
	// OpDocScanFace returns the cropped document in Binary[0] and the cropped
	// face in Binary[1].
	OpDocScanFace
	// OpFaceCompare takes two images.
	OpFaceCompare
	// OpFaceISO returns the ISO face image in Binary[0].
	OpFaceISO
	OpAntiSpoofing
)

var opNames = [...]string{
	OpUnknown:           "unknown",
	OpValidate:          "validate",
	OpEstimateAge:       "estimate_age",
	OpEstimateAgeStdDev: "estimate_age_with_stdd",
	OpEnrollOneFA:       "enroll_onefa",
	OpPredictOneFA:      "predict_onefa",
	OpUserDelete:        "user_delete",
	OpDocScanFace:       "doc_scan_face",
	OpFaceCompare:       "face_compare_files",
	OpFaceISO:           "face_iso",
	OpAntiSpoofing:      "anti_spoofing",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpUnknown]
}

// Valid reports whether o names a known operation.
func (o Op) Valid() bool { return o > OpUnknown && o <= OpAntiSpoofing }

// Images returns how many input images the operation takes.
func (o Op) Images() int {
	switch o {
	case OpUserDelete:
		return 0
	case OpFaceCompare:
		return 2
	default:
		return 1
	}
}

// BinaryOutputs returns how many raw output buffers the operation produces
// besides its text result.
func (o Op) BinaryOutputs() int {
	switch o {
	case OpDocScanFace:
		return 2
	case OpFaceISO:
		return 1
	default:
		return 0
	}
}
