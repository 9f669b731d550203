package domain

import (
	"strings"

	apperrors "carepanion/internal/platform/errors"
)

type Country struct {
	Code string
	Name string
}

var (
	Genders          = []string{"Female", "Male", "Non-binary", "Prefer not to say"}
	AgeBrackets      = []string{"60-69", "70-79", "80-89", "90+"}
	HearingAbilities = []string{"Normal", "Mild loss", "Moderate loss", "Severe loss", "Profound"}
	Nationalities    = []Country{
		{Code: "TH", Name: "Thailand"},
		{Code: "US", Name: "United States"},
		{Code: "JP", Name: "Japan"},
		{Code: "KR", Name: "South Korea"},
		{Code: "GB", Name: "United Kingdom"},
		{Code: "AU", Name: "Australia"},
	}
)

type Profile struct {
	Gender         string
	AgeBracket     string
	HearingAbility string
	Nationality    string
}

// Record is the backend's view of a user: the profile fields may be empty
// for users who have not finished setup.
type Record struct {
	WalletAddress string
	Profile       Profile
}

func (p Profile) Normalize() Profile {
	return Profile{
		Gender:         strings.TrimSpace(p.Gender),
		AgeBracket:     strings.TrimSpace(p.AgeBracket),
		HearingAbility: strings.TrimSpace(p.HearingAbility),
		Nationality:    strings.ToUpper(strings.TrimSpace(p.Nationality)),
	}
}

// Complete reports whether all four fields are present.
func (p Profile) Complete() bool {
	return p.Gender != "" && p.AgeBracket != "" && p.HearingAbility != "" && p.Nationality != ""
}

func (p Profile) Validate() error {
	if err := checkOption("gender", p.Gender, Genders); err != nil {
		return err
	}
	if err := checkOption("age_bracket", p.AgeBracket, AgeBrackets); err != nil {
		return err
	}
	if err := checkOption("hearing_ability", p.HearingAbility, HearingAbilities); err != nil {
		return err
	}
	return checkOption("nationality", p.Nationality, NationalityCodes())
}

func NationalityCodes() []string {
	codes := make([]string, 0, len(Nationalities))
	for _, c := range Nationalities {
		codes = append(codes, c.Code)
	}
	return codes
}

func checkOption(field, value string, allowed []string) error {
	if value == "" {
		return apperrors.Validation("%s is required", field)
	}
	for _, option := range allowed {
		if option == value {
			return nil
		}
	}
	return apperrors.Validation("unsupported %s %q", field, value)
}
