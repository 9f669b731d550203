package prompt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	labelingdto "carepanion/internal/modules/labeling/dto"
	profiledto "carepanion/internal/modules/profile/dto"
	"carepanion/internal/ui/prompt"
)

// scriptDriver answers prompts from fixed queues.
type scriptDriver struct {
	inputs  []string
	selects []int
	notes   string
	asked   []string
}

func (d *scriptDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	for len(d.inputs) > 0 {
		v := d.inputs[0]
		d.inputs = d.inputs[1:]
		if cfg.Validator == nil || cfg.Validator(v) == nil {
			return v, nil
		}
	}
	return "", prompt.ErrAborted
}

func (d *scriptDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.selects) == 0 {
		return 0, prompt.ErrAborted
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *scriptDriver) Multiline(_ context.Context, message string) (string, error) {
	d.asked = append(d.asked, message)
	return d.notes, nil
}

func TestIdentityRetriesUntilLongEnough(t *testing.T) {
	t.Parallel()
	d := &scriptDriver{inputs: []string{"short", "0123456789abcdef"}}
	got, err := prompt.Identity(context.Background(), d, 16)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if got != "0123456789abcdef" {
		t.Fatalf("identity = %q", got)
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()
	opts := profiledto.OptionsOutput{
		Genders:          []string{"Female", "Male"},
		AgeBrackets:      []string{"60-69", "70-79", "80-89"},
		HearingAbilities: []string{"Normal", "Mild loss"},
		Nationalities:    []profiledto.CountryOption{{Code: "TH", Name: "Thailand"}, {Code: "JP", Name: "Japan"}},
	}
	d := &scriptDriver{selects: []int{1, 2, 0, 1}}
	got, err := prompt.Profile(context.Background(), d, opts)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	want := profiledto.SetupInput{Gender: "Male", AgeBracket: "80-89", HearingAbility: "Normal", Nationality: "JP"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestRatings(t *testing.T) {
	t.Parallel()
	opts := labelingdto.OptionsOutput{
		MinScore:      1,
		MaxScore:      5,
		SpeakingRates: []string{"Slow", "Medium", "Fast"},
		EmpathyLevels: []string{"Low", "Medium", "High"},
	}
	d := &scriptDriver{selects: []int{4, 2, 1, 0}, notes: "  "}
	got, err := prompt.Ratings(context.Background(), d, labelingdto.ItemOutput{ID: 9}, opts)
	if err != nil {
		t.Fatalf("ratings: %v", err)
	}
	want := map[string]string{
		"comfort_level":     "5",
		"clarity":           "3",
		"speaking_rate":     "Medium",
		"perceived_empathy": "Low",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ratings mismatch (-want +got):\n%s", diff)
	}

	d = &scriptDriver{selects: []int{0}}
	if _, err := prompt.Ratings(context.Background(), d, labelingdto.ItemOutput{ID: 9}, opts); !errors.Is(err, prompt.ErrAborted) {
		t.Fatalf("expected abort, got %v", err)
	}
}
