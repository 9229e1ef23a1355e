// internal/review/rules/matrix.go
package rules

import (
	"fmt"

	"childminder-review/internal/models"
)

// RequiredSections maps an application's characteristics to the ordered set
// of sections a reviewer must work through. The rule is an eight-way
// decision table over (caresForAgeZeroToFive, hasOwnChildren,
// worksInOtherChildminderHome); every combination is enumerated explicitly
// so an unhandled row is a loud failure, never a silently wrong default.
//
// Behind the table:
//   - seven baseline sections are always present,
//   - health is added whenever the applicant cares for ages zero to five,
//   - people-in-home is added except when the applicant has their own
//     children AND works in another childminder's home,
//   - your-children is added whenever the applicant has their own children.
//
// The function is pure: identical input yields an identical, order-stable
// slice.
func RequiredSections(c models.Characteristics) []Section {
	key := [3]bool{c.CaresForAgeZeroToFive, c.HasOwnChildren, c.WorksInOtherChildminderHome}

	switch key {
	case [3]bool{false, false, false}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionPeopleInHome,
			SectionReferences,
		}
	case [3]bool{false, false, true}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionPeopleInHome,
			SectionReferences,
		}
	case [3]bool{false, true, false}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionPeopleInHome,
			SectionReferences,
			SectionYourChildren,
		}
	case [3]bool{false, true, true}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionReferences,
			SectionYourChildren,
		}
	case [3]bool{true, false, false}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionHealth,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionPeopleInHome,
			SectionReferences,
		}
	case [3]bool{true, false, true}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionHealth,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionPeopleInHome,
			SectionReferences,
		}
	case [3]bool{true, true, false}:
		return []Section{
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
	case [3]bool{true, true, true}:
		return []Section{
			SectionChildcareType,
			SectionCriminalRecordCheck,
			SectionChildcareTraining,
			SectionFirstAidTraining,
			SectionHealth,
			SectionLoginDetails,
			SectionPersonalDetails,
			SectionReferences,
			SectionYourChildren,
		}
	default:
		// Unreachable for three booleans; kept loud rather than returning a
		// wrong row.
		panic(fmt.Sprintf("rules: unhandled characteristics combination %v", key))
	}
}

// Requires reports whether the section applies to an application with the
// given characteristics.
func Requires(c models.Characteristics, s Section) bool {
	for _, required := range RequiredSections(c) {
		if required == s {
			return true
		}
	}
	return false
}
