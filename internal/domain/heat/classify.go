package heat

import (
	"github.com/okian/heatcheck/internal/domain/model"
)

// Threshold maps an exclusive lower HSI bound to a label.
type Threshold struct {
	Above float64     `json:"above"`
	Label model.Label `json:"label"`
}

var (
	maleThresholds = []Threshold{
		{Above: 250, Label: model.LabelDelay},
		{Above: 200, Label: model.LabelCaution},
		{Above: 150, Label: model.LabelCooling},
	}
	femaleThresholds = []Threshold{
		{Above: 225, Label: model.LabelDelay},
		{Above: 180, Label: model.LabelCaution},
		{Above: 135, Label: model.LabelCooling},
	}
)

// ThresholdsFor returns the tier table for gender, highest bound first.
// Values other than "male" (any case) get the female table.
func ThresholdsFor(gender string) []Threshold {
	src := femaleThresholds
	if model.IsMale(gender) {
		src = maleThresholds
	}
	out := make([]Threshold, len(src))
	copy(out, src)
	return out
}

// Classify returns the first tier whose bound hsi strictly exceeds, or
// LabelNone.
func Classify(hsi float64, gender string) model.Label {
	src := femaleThresholds
	if model.IsMale(gender) {
		src = maleThresholds
	}
	for _, t := range src {
		if hsi > t.Above {
			return t.Label
		}
	}
	return model.LabelNone
}
