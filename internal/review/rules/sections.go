// internal/review/rules/sections.go
package rules

// Section identifies one reviewable page/topic of an application.
type Section string

const (
	SectionChildcareType       Section = "childcare-type"
	SectionCriminalRecordCheck Section = "criminal-record-check"
	SectionChildcareTraining   Section = "childcare-training"
	SectionFirstAidTraining    Section = "first-aid-training"
	SectionHealth              Section = "health"
	SectionLoginDetails        Section = "login-details"
	SectionPersonalDetails     Section = "personal-details"
	SectionPeopleInHome        Section = "people-in-home"
	SectionReferences          Section = "references"
	SectionYourChildren        Section = "your-children"
)

// AllSections is the full section vocabulary in display order. Every set
// returned by RequiredSections is a strict subset of this list.
var AllSections = []Section{
	SectionChildcareType,
	SectionCriminalRecordCheck,
	SectionChildcareTraining,
	SectionFirstAidTraining,
	SectionHealth,
	SectionLoginDetails,
	SectionPersonalDetails,
	SectionPeopleInHome,
	SectionReferences,
	SectionYourChildren,
}

// sectionFields is the per-section form field vocabulary. Field names key
// the reviewer's flag/comment rows.
var sectionFields = map[Section][]string{
	SectionChildcareType: {
		"childcare_age_groups",
		"overnight_care",
	},
	SectionCriminalRecordCheck: {
		"dbs_certificate_number",
		"on_dbs_update_service",
	},
	SectionChildcareTraining: {
		"eyfs_training_course",
		"eyfs_training_date",
	},
	SectionFirstAidTraining: {
		"first_aid_training_organisation",
		"first_aid_training_course",
		"first_aid_training_date",
	},
	SectionHealth: {
		"health_declaration_submitted",
	},
	SectionLoginDetails: {
		"email_address",
		"mobile_number",
	},
	SectionPersonalDetails: {
		"name",
		"date_of_birth",
		"home_address",
		"childcare_location",
	},
	SectionPeopleInHome: {
		"adults_in_home",
		"children_in_home",
		"adult_dbs_checks",
	},
	SectionReferences: {
		"first_reference",
		"first_reference_address",
		"second_reference",
		"second_reference_address",
	},
	SectionYourChildren: {
		"own_children_details",
		"own_children_not_in_home",
	},
}

// SectionFields returns the form fields of a section, or nil for an unknown
// section identifier.
func SectionFields(s Section) []string {
	fields, ok := sectionFields[s]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Known reports whether s is part of the section vocabulary.
func Known(s Section) bool {
	_, ok := sectionFields[s]
	return ok
}
