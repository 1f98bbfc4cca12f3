package emotion

import (
	"log"
)

// Result 是一次情绪识别的完整结果。
type Result struct {
	// Candidate is the raw classifier output.
	Candidate Label `json:"candidate"`
	// Emotion is the label after the override rules.
	Emotion Label `json:"emotion"`
	// LastEmotion is the context value to persist for the next turn.
	LastEmotion Label `json:"lastEmotion,omitempty"`
}

// Detector chains the classifier and the override layer. A nil classifier
// puts the detector in degraded mode where every candidate is Unknown.
type Detector struct {
	classifier *Classifier
	overrider  *Overrider
}

// NewDetector 组合分类器与规则层，classifier 可以为 nil。
func NewDetector(classifier *Classifier, cfg OverrideConfig) *Detector {
	return &Detector{
		classifier: classifier,
		overrider:  NewOverrider(cfg),
	}
}

// Degraded 表示模型未加载。
func (d *Detector) Degraded() bool {
	return d.classifier == nil
}

// Candidate returns the classifier label for text, or Unknown when the model
// is unavailable or prediction fails.
func (d *Detector) Candidate(text string) (label Label) {
	if d.classifier == nil {
		return Unknown
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[emotion] prediction failed, treating as unknown: %v", r)
			label = Unknown
		}
	}()

	return d.classifier.PredictLabel(text)
}

// Detect runs prediction and the override rules against the previous
// turn's emotion.
func (d *Detector) Detect(text string, last Label) Result {
	candidate := d.Candidate(text)
	resolved, next := d.overrider.Resolve(text, candidate, last)
	return Result{
		Candidate:   candidate,
		Emotion:     resolved,
		LastEmotion: next,
	}
}
