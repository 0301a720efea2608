package translate

import "strings"

// DemographicsPrefix namespaces demographic fields in the unified shape.
const DemographicsPrefix = "demographics_"

// SelfDescribeGender is the gender value that keeps a free-text description.
const SelfDescribeGender = "self-describe"

// DemographicFields lists the wire names renamed with DemographicsPrefix.
var DemographicFields = []string{
	"gender",
	"gender_description",
	"income",
	"learner_education_level",
	"parent_education_level",
	"military_history",
	"work_status",
	"work_status_description",
	"current_work_sector",
	"future_work_sector",
	"user_ethnicity",
}

// DemographicsToUnified prefixes demographic wire keys. Other keys, such as
// user, pass through.
func DemographicsToUnified(wire map[string]any) Unified {
	out := Unified{}
	for key, value := range copyMap(wire) {
		if isDemographicField(key) {
			out[DemographicsPrefix+key] = value
			continue
		}
		out[key] = value
	}
	return out
}

// DemographicsToWire strips the demographics prefix from committed fields.
func DemographicsToWire(commit Unified) map[string]any {
	out := map[string]any{}
	for key, value := range copyMap(commit) {
		if name, ok := strings.CutPrefix(key, DemographicsPrefix); ok && isDemographicField(name) {
			out[name] = value
			continue
		}
		out[key] = value
	}
	return out
}

// IsDemographicsField reports whether a unified field belongs to the
// demographics resource.
func IsDemographicsField(field string) bool {
	name, ok := strings.CutPrefix(field, DemographicsPrefix)
	return ok && isDemographicField(name)
}

// DefaultDemographics is the record used when the demographics service cannot
// be read: every string field empty and no ethnicity entries.
func DefaultDemographics(userID int) Unified {
	out := Unified{"user": userID}
	for _, field := range DemographicFields {
		if field == "user_ethnicity" {
			out[DemographicsPrefix+field] = []any{}
			continue
		}
		out[DemographicsPrefix+field] = ""
	}
	return out
}

func isDemographicField(name string) bool {
	for _, field := range DemographicFields {
		if field == name {
			return true
		}
	}
	return false
}
