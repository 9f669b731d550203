package dto

const (
	StepLoggedOut      = "logged_out"
	StepProfilePending = "profile_pending"
	StepLabeling       = "labeling"

	// ProviderManual logs in with a typed identity instead of a wallet
	// plugin.
	ProviderManual = "manual"
)

type StateOutput struct {
	Step          string
	IdentityRef   string
	ShortIdentity string
	TokenBalance  float64
	IsNewUser     bool
	// Notice is a non-error message for the status line, such as an
	// expired session found on restore.
	Notice string
}
