package emotion

import (
	"gonum.org/v1/gonum/floats"
)

// SparseVector holds the non-zero features of one message as parallel
// slices. Indices are vocabulary indices in the order their n-gram first
// appears in the text; sums over the vector follow that order.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len 返回非零特征个数。
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// Classifier scores text against a linear model over TF-IDF features.
type Classifier struct {
	artifact *Artifact
}

// NewClassifier 使用已加载的模型创建分类器。
func NewClassifier(artifact *Artifact) *Classifier {
	return &Classifier{artifact: artifact}
}

// Classes returns the class identifiers in score order.
func (c *Classifier) Classes() []ClassID {
	return c.artifact.Classes()
}

// Predict returns the arg-max class for text, or the first class when no
// n-gram of text is in the vocabulary.
func (c *Classifier) Predict(text string) ClassID {
	scores, ok := c.Scores(text)
	if !ok {
		return c.artifact.classes[0]
	}
	return c.artifact.classes[floats.MaxIdx(scores)]
}

// PredictLabel 返回预测类别对应的情绪标签。
func (c *Classifier) PredictLabel(text string) Label {
	return LabelForClass(c.Predict(text))
}

// Scores returns one decision value per class. ok is false when text has no
// known terms, in which case scores is nil.
func (c *Classifier) Scores(text string) ([]float64, bool) {
	vec := c.Features(text)
	if vec.Len() == 0 {
		return nil, false
	}

	a := c.artifact
	scores := make([]float64, len(a.classes))
	for k := range scores {
		var dot float64
		for i, idx := range vec.Indices {
			dot += vec.Values[i] * a.coef.At(k, idx)
		}
		scores[k] = dot + a.intercept[k]
	}
	return scores, true
}

// Features returns the L2-normalized TF-IDF vector of text restricted to the
// vocabulary.
func (c *Classifier) Features(text string) SparseVector {
	indices, counts := c.countTerms(text)
	if len(indices) == 0 {
		return SparseVector{}
	}

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = float64(counts[i]) * c.artifact.idf[idx]
	}

	if norm := floats.Norm(values, 2); norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}

	return SparseVector{Indices: indices, Values: values}
}

// countTerms returns the distinct vocabulary indices of text in first
// occurrence order together with their counts.
func (c *Classifier) countTerms(text string) (indices []int, counts []int) {
	grams := NGrams(Tokenize(text))
	pos := make(map[int]int, len(grams))
	for _, gram := range grams {
		idx, ok := c.artifact.lookup(gram)
		if !ok {
			continue
		}
		if i, seen := pos[idx]; seen {
			counts[i]++
			continue
		}
		pos[idx] = len(indices)
		indices = append(indices, idx)
		counts = append(counts, 1)
	}
	return indices, counts
}
