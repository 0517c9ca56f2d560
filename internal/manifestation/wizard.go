package manifestation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldDate     FieldType = "date"
	FieldTime     FieldType = "time"
)

// MinRequiredLength is the shortest trimmed value a required field accepts.
const MinRequiredLength = 2

const TotalSteps = 4

var ErrStepIncomplete = errors.New("required fields are missing")

type StepField struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Placeholder string    `json:"placeholder"`
	Required    bool      `json:"required"`
}

type Step struct {
	Number int         `json:"number"`
	Title  string      `json:"title"`
	Fields []StepField `json:"fields"`
}

var Steps = []Step{
	{
		Number: 1,
		Title:  "Personal Info",
		Fields: []StepField{
			{Key: "name", Label: "What would you like to be called?", Type: FieldText, Placeholder: "Enter your preferred name", Required: true},
			{Key: "birthDate", Label: "Birth Date", Type: FieldDate, Placeholder: "Select your birth date", Required: true},
			{Key: "birthTime", Label: "Birth Time", Type: FieldTime, Placeholder: "Enter your birth time"},
		},
	},
	{
		Number: 2,
		Title:  "Birth Details",
		Fields: []StepField{
			{Key: "birthPlace", Label: "Birth Place", Type: FieldText, Placeholder: "e.g., Chennai, Tamil Nadu, India"},
			{Key: "nakshatra", Label: "Nakshatra (with Padam)", Type: FieldText, Placeholder: "e.g., Ashwini Padam 1"},
			{Key: "lagna", Label: "Lagna (Ascendant)", Type: FieldText, Placeholder: "e.g., Mesha (Aries)"},
		},
	},
	{
		Number: 3,
		Title:  "Achievements",
		Fields: []StepField{
			{Key: "strengths", Label: "Your Strengths", Type: FieldTextarea, Placeholder: "What are you naturally good at? What do others appreciate about you?", Required: true},
			{Key: "areasOfImprovement", Label: "Areas of Improvement", Type: FieldTextarea, Placeholder: "What aspects of yourself would you like to develop further?"},
			{Key: "greatestAchievement", Label: "Greatest Achievement in Life", Type: FieldTextarea, Placeholder: "What accomplishment are you most proud of?"},
			{Key: "lastYearAchievement", Label: "Big Achievement in the Last Year", Type: FieldTextarea, Placeholder: "What significant milestone did you reach recently?"},
		},
	},
	{
		Number: 4,
		Title:  "Goals & Vision",
		Fields: []StepField{
			{Key: "nextYearGoals", Label: "Next One Year Goals", Type: FieldTextarea, Placeholder: "What do you want to achieve in the next 12 months?", Required: true},
			{Key: "lifeGoals", Label: "Life Goals (with Timeline)", Type: FieldTextarea, Placeholder: "e.g., By 30: Start my own business. By 40: Achieve financial freedom...", Required: true},
			{Key: "howToBeRemembered", Label: "How would you like others to remember you?", Type: FieldTextarea, Placeholder: "What legacy do you want to leave behind?"},
			{Key: "manifestationWish", Label: "One Thing You Want to Manifest", Type: FieldTextarea, Placeholder: "If you could manifest just one thing right now, what would it be?", Required: true},
		},
	},
}

// StepAt returns the step with the given 1-based number.
func StepAt(number int) (Step, bool) {
	if number < 1 || number > len(Steps) {
		return Step{}, false
	}
	return Steps[number-1], true
}

func filled(value string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) >= MinRequiredLength
}

// MissingFields lists the required keys of a step that do not hold a usable value.
func MissingFields(number int, data FormData) []string {
	step, ok := StepAt(number)
	if !ok {
		return nil
	}
	var missing []string
	for _, f := range step.Fields {
		if f.Required && !filled(data.Field(f.Key)) {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

// CanProceed reports whether every required field of the step has a trimmed length of at least two.
func CanProceed(number int, data FormData) bool {
	if _, ok := StepAt(number); !ok {
		return false
	}
	return len(MissingFields(number, data)) == 0
}

// ValidationError names the fields that blocked a step.
type ValidationError struct {
	Step   int
	Fields []string
}

func (e *ValidationError) Error() string {
	return "step " + Steps[e.Step-1].Title + ": " + ErrStepIncomplete.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrStepIncomplete }

// Validate checks the required fields of every step, stopping at the first incomplete one.
func Validate(data FormData) error {
	for _, step := range Steps {
		if missing := MissingFields(step.Number, data); len(missing) > 0 {
			return &ValidationError{Step: step.Number, Fields: missing}
		}
	}
	return nil
}

type Wizard struct {
	Step int      `json:"step"`
	Data FormData `json:"data"`
}

func NewWizard() Wizard {
	return Wizard{Step: 1}
}

func (w *Wizard) IsFirst() bool { return w.Step == 1 }
func (w *Wizard) IsLast() bool  { return w.Step == TotalSteps }

func (w *Wizard) Current() Step {
	step, _ := StepAt(w.Step)
	return step
}

func (w *Wizard) CanProceed() bool {
	return CanProceed(w.Step, w.Data)
}

// Set updates only keys that belong to the current step.
func (w *Wizard) Set(key, value string) bool {
	for _, f := range w.Current().Fields {
		if f.Key == key {
			return w.Data.SetField(key, value)
		}
	}
	return false
}

// Next moves to the following step. On the last step it reports done instead of moving.
func (w *Wizard) Next() (done bool, err error) {
	if missing := MissingFields(w.Step, w.Data); len(missing) > 0 {
		return false, &ValidationError{Step: w.Step, Fields: missing}
	}
	if w.IsLast() {
		return true, nil
	}
	w.Step++
	return false, nil
}

func (w *Wizard) Back() {
	if w.Step > 1 {
		w.Step--
	}
}
