package emotion

import "testing"

// testArtifactFile is a tiny six-class model where every emotion has one
// trigger word.
func testArtifactFile() ArtifactFile {
	return ArtifactFile{
		Vocabulary: map[string]int{
			"furious":  0,
			"happy":    1,
			"sad":      2,
			"scared":   3,
			"wow":      4,
			"so happy": 5,
		},
		IDF: []float64{1.5, 1.2, 1.4, 1.6, 1.1, 2.0},
		Coef: [][]float64{
			{0, 0, 2, 0, 0, 0},   // 0 sadness
			{0, 2, 0, 0, 0, 1},   // 1 joy
			{0, 0.5, 0, 0, 0, 0}, // 2 love
			{2, 0, 0, 0, 0, 0},   // 3 anger
			{0, 0, 0, 2, 0, 0},   // 4 fear
			{0, 0, 0, 0, 2, 0},   // 5 surprise
		},
		Intercept: []float64{0.1, 0, -0.1, 0, 0, 0},
		Classes:   []ClassID{"0", "1", "2", "3", "4", "5"},
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	artifact, err := NewArtifact(testArtifactFile())
	if err != nil {
		t.Fatalf("NewArtifact err: %v", err)
	}
	return NewClassifier(artifact)
}
