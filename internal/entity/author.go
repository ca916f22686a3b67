package entity

import "strings"

// Author is a value object: Articles reference authors by value, never by
// id, so there are no cyclic references anywhere in the entity model.
type Author struct {
	FamilyName      string
	GivenName       string
	FullName        string
	ORCID           string
	Affiliation     string
	IsCorresponding bool
}

// DisplayName returns the best human-readable form of the author's name.
func (a Author) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	if a.FamilyName != "" && a.GivenName != "" {
		return a.GivenName + " " + a.FamilyName
	}
	if a.FamilyName != "" {
		return a.FamilyName
	}
	return a.GivenName
}

// CitationName returns the "Smith JA" abbreviated citation form.
func (a Author) CitationName() string {
	if a.FamilyName == "" {
		return a.DisplayName()
	}
	initials := initialsOf(a.GivenName)
	if initials == "" {
		return a.FamilyName
	}
	return a.FamilyName + " " + initials
}

func initialsOf(given string) string {
	fields := strings.Fields(given)
	var sb strings.Builder
	for _, f := range fields {
		r := []rune(f)
		if len(r) > 0 {
			sb.WriteRune(r[0])
		}
	}
	return strings.ToUpper(sb.String())
}
