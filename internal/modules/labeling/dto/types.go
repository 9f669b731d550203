package dto

import "time"

type ItemOutput struct {
	ID              int64
	SourceURL       string
	DurationSeconds int
}

type RatingsOutput struct {
	ComfortLevel     int
	Clarity          int
	SpeakingRate     string
	PerceivedEmpathy string
	Notes            string
}

type ReceiptOutput struct {
	Status               string
	LabelID              int64
	TransactionSignature string
}

// FormOutput is a point-in-time view of the labeling form.
type FormOutput struct {
	Item          *ItemOutput
	Ratings       RatingsOutput
	State         string
	Missing       []string
	CanSubmit     bool
	Loading       bool
	Submitting    bool
	Exhausted     bool
	LabeledCount  int
	LifetimeCount int
	LastError     string
	LastReceipt   *ReceiptOutput
}

type SubmitOutput struct {
	Receipt ReceiptOutput
	Form    FormOutput
}

type HistoryEntryOutput struct {
	LabelID              int64
	AudioID              int64
	ComfortLevel         int
	Clarity              int
	SpeakingRate         string
	PerceivedEmpathy     string
	TransactionSignature string
	SubmittedAt          time.Time
}

type HistoryOutput struct {
	Total   int
	Entries []HistoryEntryOutput
}

type OptionsOutput struct {
	MinScore      int
	MaxScore      int
	SpeakingRates []string
	EmpathyLevels []string
}
