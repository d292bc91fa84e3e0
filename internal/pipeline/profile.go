package pipeline

import (
	"fmt"
	"strings"
)

// Profile selects which sources are queried and which derived metrics
// the report carries.
type Profile string

const (
	// ProfileRegulatory queries openFDA and ClinicalTrials.gov for
	// approval-risk assessment
	ProfileRegulatory Profile = "regulatory"

	// ProfileClinical queries ClinicalTrials.gov and PubMed for the
	// trial landscape
	ProfileClinical Profile = "clinical"

	// ProfileLiterature queries PubMed and configured news feeds for
	// publication signals
	ProfileLiterature Profile = "literature"
)

// ParseProfile validates a profile name; empty input means regulatory
func ParseProfile(raw string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ProfileRegulatory:
		return ProfileRegulatory, nil
	case ProfileClinical:
		return ProfileClinical, nil
	case ProfileLiterature:
		return ProfileLiterature, nil
	default:
		return "", fmt.Errorf("unknown profile %q (want regulatory, clinical or literature)", raw)
	}
}
