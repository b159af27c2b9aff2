package analyzer

import "fmt"

// NewDetector returns the verifier for a run file's detector name.
// "none" disables verification and yields a nil Detector.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "none", "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
