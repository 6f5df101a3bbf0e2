package subject

import (
	"fmt"
	"regexp"
	"strings"
)

// Form is one of the grammars a package identifier can follow.
type Form int

const (
	FormNEVRA Form = iota + 1 // name-[epoch:]version-release.arch
	FormNEVR                  // name-[epoch:]version-release
	FormNEV                   // name-[epoch:]version
	FormNA                    // name.arch
	FormName                  // name
)

var (
	// FormsMostSpecific orders forms from the most to the least structured.
	// Use it to enumerate every structural reading of an identifier.
	FormsMostSpecific = []Form{FormNEVRA, FormNEVR, FormNEV, FormNA, FormName}

	// FormsMostProbable orders forms by what users usually type: a bare name
	// or name.arch first, versioned readings after. It is the default for
	// catalog-backed resolution.
	FormsMostProbable = []Form{FormNA, FormName, FormNEVRA, FormNEV, FormNEVR}
)

// Grammars over the signature alphabet {S, E, ., -}. Every token is one
// byte of the signature, so submatch offsets are token indices.
var grammars = map[Form]*regexp.Regexp{
	FormNEVRA: regexp.MustCompile(`^(?P<name>[.\-S]+)-(?P<epoch>E)?(?P<version>[.S]+)-(?P<release>[.S]+)\.(?P<arch>S)$`),
	FormNEVR:  regexp.MustCompile(`^(?P<name>[.\-S]+)-(?P<epoch>E)?(?P<version>[.S]+)-(?P<release>[.S]+)$`),
	FormNEV:   regexp.MustCompile(`^(?P<name>[.\-S]+)-(?P<epoch>E)?(?P<version>[.S]+)$`),
	FormNA:    regexp.MustCompile(`^(?P<name>[.\-S]+)\.(?P<arch>S)$`),
	FormName:  regexp.MustCompile(`^(?P<name>[.\-S]+)$`),
}

var formNames = map[Form]string{
	FormNEVRA: "NEVRA",
	FormNEVR:  "NEVR",
	FormNEV:   "NEV",
	FormNA:    "NA",
	FormName:  "NAME",
}

func (f Form) String() string {
	if s, ok := formNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Form(%d)", int(f))
}

// ParseForm returns the form named s, case-insensitively.
func ParseForm(s string) (Form, error) {
	for f, name := range formNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown form %q", s)
}

// ParseForms parses a list of form names, keeping their order.
func ParseForms(names []string) ([]Form, error) {
	forms := make([]Form, 0, len(names))
	for _, name := range names {
		f, err := ParseForm(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, nil
}
