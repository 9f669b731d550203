package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "carepanion/internal/platform/errors"
)

const (
	MinScore = 1
	MaxScore = 5
)

var ErrNoMoreItems = fmt.Errorf("no more items to label: %w", apperrors.ErrNotFound)

// Item is one audio clip offered by the backend.
type Item struct {
	ID              int64
	SourceURL       string
	DurationSeconds int
}

type SpeakingRate string

const (
	RateSlow   SpeakingRate = "Slow"
	RateMedium SpeakingRate = "Medium"
	RateFast   SpeakingRate = "Fast"
)

var SpeakingRates = []SpeakingRate{RateSlow, RateMedium, RateFast}

type Empathy string

const (
	EmpathyLow    Empathy = "Low"
	EmpathyMedium Empathy = "Medium"
	EmpathyHigh   Empathy = "High"
)

var EmpathyLevels = []Empathy{EmpathyLow, EmpathyMedium, EmpathyHigh}

type Field string

const (
	FieldComfortLevel     Field = "comfort_level"
	FieldClarity          Field = "clarity"
	FieldSpeakingRate     Field = "speaking_rate"
	FieldPerceivedEmpathy Field = "perceived_empathy"
	FieldNotes            Field = "notes"
)

// RequiredFields are the ratings a submission cannot go without.
var RequiredFields = []Field{FieldComfortLevel, FieldClarity, FieldSpeakingRate, FieldPerceivedEmpathy}

// Ratings is the partial label being edited. The zero value is the unset
// default: scores 0, choices empty.
type Ratings struct {
	ComfortLevel     int
	Clarity          int
	SpeakingRate     SpeakingRate
	PerceivedEmpathy Empathy
	Notes            string
}

// Set returns a copy with one field changed. Scores accept 0 (unset)
// through MaxScore; choices accept "" (unset) or a known value.
func (r Ratings) Set(field Field, value any) (Ratings, error) {
	switch field {
	case FieldComfortLevel, FieldClarity:
		score, ok := value.(int)
		if !ok {
			return r, apperrors.Validation("%s must be an integer, got %T", field, value)
		}
		if score < 0 || score > MaxScore {
			return r, apperrors.Validation("%s must be between %d and %d", field, MinScore, MaxScore)
		}
		if field == FieldComfortLevel {
			r.ComfortLevel = score
		} else {
			r.Clarity = score
		}
	case FieldSpeakingRate:
		text, ok := stringValue(value)
		if !ok {
			return r, apperrors.Validation("%s must be a string, got %T", field, value)
		}
		rate := SpeakingRate(text)
		if rate != "" && !oneOf(rate, SpeakingRates) {
			return r, apperrors.Validation("speaking_rate must be one of Slow, Medium, Fast")
		}
		r.SpeakingRate = rate
	case FieldPerceivedEmpathy:
		text, ok := stringValue(value)
		if !ok {
			return r, apperrors.Validation("%s must be a string, got %T", field, value)
		}
		level := Empathy(text)
		if level != "" && !oneOf(level, EmpathyLevels) {
			return r, apperrors.Validation("perceived_empathy must be one of Low, Medium, High")
		}
		r.PerceivedEmpathy = level
	case FieldNotes:
		text, ok := stringValue(value)
		if !ok {
			return r, apperrors.Validation("%s must be a string, got %T", field, value)
		}
		r.Notes = text
	default:
		return r, apperrors.Validation("unknown rating field %q", field)
	}
	return r, nil
}

// SetText parses raw text for the field, as typed in a prompt or flag.
func (r Ratings) SetText(field Field, raw string) (Ratings, error) {
	switch field {
	case FieldComfortLevel, FieldClarity:
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return r.Set(field, 0)
		}
		score, err := strconv.Atoi(raw)
		if err != nil {
			return r, apperrors.Validation("%s must be a number between %d and %d", field, MinScore, MaxScore)
		}
		return r.Set(field, score)
	case FieldNotes:
		return r.Set(field, raw)
	default:
		return r.Set(field, strings.TrimSpace(raw))
	}
}

// Missing lists the required fields still unset, in display order.
func (r Ratings) Missing() []Field {
	var missing []Field
	if r.ComfortLevel <= 0 {
		missing = append(missing, FieldComfortLevel)
	}
	if r.Clarity <= 0 {
		missing = append(missing, FieldClarity)
	}
	if r.SpeakingRate == "" {
		missing = append(missing, FieldSpeakingRate)
	}
	if r.PerceivedEmpathy == "" {
		missing = append(missing, FieldPerceivedEmpathy)
	}
	return missing
}

func (r Ratings) Complete() bool {
	return len(r.Missing()) == 0
}

func (r Ratings) Empty() bool {
	return r == Ratings{}
}

type FormState string

const (
	StateEmpty          FormState = "empty"
	StatePartiallyRated FormState = "partially_rated"
	StateComplete       FormState = "complete"
	StateSubmitting     FormState = "submitting"
	StateFailed         FormState = "failed"
)

// StateOf derives the resting state from the ratings alone.
func StateOf(r Ratings) FormState {
	switch {
	case r.Complete():
		return StateComplete
	case r.Empty():
		return StateEmpty
	default:
		return StatePartiallyRated
	}
}

// Submission is the wire-ready label. Notes is nil when blank.
type Submission struct {
	AudioID          int64
	ComfortLevel     int
	Clarity          int
	SpeakingRate     SpeakingRate
	PerceivedEmpathy Empathy
	Notes            *string
}

// NewSubmission builds a submission for item, or fails with
// apperrors.ErrIncompleteForm naming what is missing.
func NewSubmission(item *Item, r Ratings) (Submission, error) {
	if item == nil {
		return Submission{}, fmt.Errorf("%w: no item loaded", apperrors.ErrIncompleteForm)
	}
	if missing := r.Missing(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, f := range missing {
			names = append(names, string(f))
		}
		return Submission{}, fmt.Errorf("%w: missing %s", apperrors.ErrIncompleteForm, strings.Join(names, ", "))
	}
	s := Submission{
		AudioID:          item.ID,
		ComfortLevel:     r.ComfortLevel,
		Clarity:          r.Clarity,
		SpeakingRate:     r.SpeakingRate,
		PerceivedEmpathy: r.PerceivedEmpathy,
	}
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		s.Notes = &notes
	}
	return s, nil
}

type Receipt struct {
	Status               string
	LabelID              int64
	TransactionSignature string
}

// HistoryEntry is a label submitted from this device.
type HistoryEntry struct {
	LabelID              int64
	AudioID              int64
	IdentityRef          string
	ComfortLevel         int
	Clarity              int
	SpeakingRate         SpeakingRate
	PerceivedEmpathy     Empathy
	TransactionSignature string
	SubmittedAt          time.Time
}

func NewHistoryEntry(identity string, s Submission, receipt Receipt, at time.Time) HistoryEntry {
	return HistoryEntry{
		LabelID:              receipt.LabelID,
		AudioID:              s.AudioID,
		IdentityRef:          identity,
		ComfortLevel:         s.ComfortLevel,
		Clarity:              s.Clarity,
		SpeakingRate:         s.SpeakingRate,
		PerceivedEmpathy:     s.PerceivedEmpathy,
		TransactionSignature: receipt.TransactionSignature,
		SubmittedAt:          at,
	}
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case SpeakingRate:
		return string(v), true
	case Empathy:
		return string(v), true
	default:
		return "", false
	}
}

func oneOf[T comparable](v T, set []T) bool {
	for _, item := range set {
		if item == v {
			return true
		}
	}
	return false
}
