package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	labelingdto "carepanion/internal/modules/labeling/dto"
	profiledto "carepanion/internal/modules/profile/dto"
)

// Identity asks for a wallet address of at least minLength characters.
func Identity(ctx context.Context, d Driver, minLength int) (string, error) {
	return d.Input(ctx, InputConfig{
		Message: "Wallet address",
		Help:    fmt.Sprintf("at least %d characters", minLength),
		Validator: func(s string) error {
			if n := len(strings.TrimSpace(s)); n < minLength {
				return fmt.Errorf("address has %d characters, need %d", n, minLength)
			}
			return nil
		},
	})
}

// Profile walks the four demographic questions.
func Profile(ctx context.Context, d Driver, opts profiledto.OptionsOutput) (profiledto.SetupInput, error) {
	var in profiledto.SetupInput
	var err error
	if in.Gender, err = pick(ctx, d, "Gender", opts.Genders); err != nil {
		return in, err
	}
	if in.AgeBracket, err = pick(ctx, d, "Age", opts.AgeBrackets); err != nil {
		return in, err
	}
	if in.HearingAbility, err = pick(ctx, d, "Hearing ability", opts.HearingAbilities); err != nil {
		return in, err
	}
	labels := make([]string, len(opts.Nationalities))
	for i, c := range opts.Nationalities {
		labels[i] = c.Code + " " + c.Name
	}
	idx, err := d.Select(ctx, SelectConfig{Message: "Nationality", Options: labels, PageSize: 10})
	if err != nil {
		return in, err
	}
	in.Nationality = opts.Nationalities[idx].Code
	return in, nil
}

// Ratings asks for every rating of item and returns them keyed by field
// name, the shape the labeling CLI handler takes.
func Ratings(ctx context.Context, d Driver, item labelingdto.ItemOutput, opts labelingdto.OptionsOutput) (map[string]string, error) {
	scores := make([]string, 0, opts.MaxScore-opts.MinScore+1)
	for n := opts.MinScore; n <= opts.MaxScore; n++ {
		scores = append(scores, strconv.Itoa(n))
	}
	out := make(map[string]string, 5)
	questions := []struct {
		field   string
		message string
		options []string
	}{
		{"comfort_level", fmt.Sprintf("Clip #%d: how comfortable was it to listen to?", item.ID), scores},
		{"clarity", "How clear was the speech?", scores},
		{"speaking_rate", "Speaking rate", opts.SpeakingRates},
		{"perceived_empathy", "Perceived empathy", opts.EmpathyLevels},
	}
	for _, q := range questions {
		v, err := pick(ctx, d, q.message, q.options)
		if err != nil {
			return nil, err
		}
		out[q.field] = v
	}
	notes, err := d.Multiline(ctx, "Notes (optional)")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(notes) != "" {
		out["notes"] = notes
	}
	return out, nil
}

func pick(ctx context.Context, d Driver, message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", message)
	}
	idx, err := d.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return "", fmt.Errorf("%s: choice %d out of range", message, idx)
	}
	return options[idx], nil
}
