package dto

type SetupInput struct {
	Gender         string
	AgeBracket     string
	HearingAbility string
	Nationality    string
}

type ProfileOutput struct {
	WalletAddress  string
	Gender         string
	AgeBracket     string
	HearingAbility string
	Nationality    string
	Complete       bool
}

type CountryOption struct {
	Code string
	Name string
}

type OptionsOutput struct {
	Genders          []string
	AgeBrackets      []string
	HearingAbilities []string
	Nationalities    []CountryOption
}
