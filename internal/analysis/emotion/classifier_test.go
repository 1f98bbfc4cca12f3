package emotion

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, I'm A-ok!!  x y ZZ")
	want := []string{"hello", "ok", "zz"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}

	if toks := Tokenize(""); len(toks) != 0 {
		t.Fatalf("expected no tokens for empty input, got %v", toks)
	}
	if toks := Tokenize("?! a . b"); len(toks) != 0 {
		t.Fatalf("expected no tokens for punctuation and single letters, got %v", toks)
	}
}

func TestTokenizeUnicodeWords(t *testing.T) {
	got := Tokenize("Café déjà vu")
	want := []string{"café", "déjà", "vu"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestNGrams(t *testing.T) {
	got := NGrams([]string{"i", "am", "sad"})
	want := []string{"i", "am", "sad", "i am", "am sad"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NGrams = %v, want %v", got, want)
	}

	if got := NGrams([]string{"solo"}); !reflect.DeepEqual(got, []string{"solo"}) {
		t.Fatalf("single token should yield only the unigram, got %v", got)
	}
	if got := NGrams(nil); len(got) != 0 {
		t.Fatalf("expected no n-grams, got %v", got)
	}
}

func TestPredictKnownWords(t *testing.T) {
	clf := newTestClassifier(t)

	tests := []struct {
		text string
		want Label
	}{
		{"I am furious with him", Anger},
		{"so happy right now", Joy},
		{"feeling sad today", Sadness},
		{"I'm scared of the dark", Fear},
		{"WOW!", Surprise},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := clf.PredictLabel(tt.text); got != tt.want {
				t.Fatalf("PredictLabel(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestPredictFallsBackToFirstClass(t *testing.T) {
	clf := newTestClassifier(t)

	for _, text := range []string{"", "xyzzy plugh", "!!!", "a b c"} {
		if got := clf.Predict(text); got != "0" {
			t.Fatalf("Predict(%q) = %s, want first class", text, got)
		}
		if _, ok := clf.Scores(text); ok {
			t.Fatalf("Scores(%q) should report no known terms", text)
		}
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	clf := newTestClassifier(t)
	text := "so happy but also scared and sad, wow"

	first := clf.Predict(text)
	for i := 0; i < 50; i++ {
		if got := clf.Predict(text); got != first {
			t.Fatalf("run %d: got %s, want %s", i, got, first)
		}
	}
}

func TestFeaturesAreL2Normalized(t *testing.T) {
	clf := newTestClassifier(t)

	vec := clf.Features("happy happy so happy sad furious")
	if vec.Len() != 4 {
		t.Fatalf("expected 4 features, got %d (%v)", vec.Len(), vec.Indices)
	}

	var sum float64
	for _, v := range vec.Values {
		sum += v * v
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-9 {
		t.Fatalf("expected unit norm, got %f", math.Sqrt(sum))
	}

	// unigrams first, then bigrams, each index at its first occurrence
	want := []int{1, 2, 0, 5}
	for i, idx := range want {
		if vec.Indices[i] != idx {
			t.Fatalf("indices = %v, want %v", vec.Indices, want)
		}
	}
	if vec.Values[0] <= vec.Values[1] {
		t.Fatalf("repeated term should weigh more: %v", vec.Values)
	}
}

func TestFeaturesWeighting(t *testing.T) {
	clf := newTestClassifier(t)

	// "happy" twice (idf 1.2) and "sad" once (idf 1.4).
	vec := clf.Features("happy sad happy")
	raw := map[int]float64{1: 2 * 1.2, 2: 1 * 1.4}
	norm := math.Hypot(raw[1], raw[2])

	for i, idx := range vec.Indices {
		want := raw[idx] / norm
		if math.Abs(vec.Values[i]-want) > 1e-12 {
			t.Fatalf("feature %d = %f, want %f", idx, vec.Values[i], want)
		}
	}
}

func TestFeaturesZeroIDFSkipsNormalization(t *testing.T) {
	file := testArtifactFile()
	file.IDF = []float64{0, 0, 0, 0, 0, 0}
	artifact, err := NewArtifact(file)
	if err != nil {
		t.Fatalf("NewArtifact err: %v", err)
	}
	clf := NewClassifier(artifact)

	vec := clf.Features("furious")
	if vec.Len() != 1 || vec.Values[0] != 0 {
		t.Fatalf("expected one zero-weight feature, got %+v", vec)
	}

	// All weights are zero so the intercepts decide: class 0 has the largest.
	if got := clf.Predict("furious"); got != "0" {
		t.Fatalf("Predict = %s, want 0", got)
	}
}

func TestPredictTieBreaksOnLowestIndex(t *testing.T) {
	file := testArtifactFile()
	file.Coef[1] = []float64{0, 0, 0, 0, 2, 0} // joy reacts to "wow" exactly like surprise
	artifact, err := NewArtifact(file)
	if err != nil {
		t.Fatalf("NewArtifact err: %v", err)
	}
	clf := NewClassifier(artifact)

	scores, ok := clf.Scores("wow")
	if !ok {
		t.Fatal("expected scores")
	}
	if scores[1] != scores[5] {
		t.Fatalf("expected tied scores, got %v", scores)
	}
	if got := clf.PredictLabel("wow"); got != Joy {
		t.Fatalf("PredictLabel = %s, want Joy", got)
	}
}

func TestScoresUseInterceptAndSparseDot(t *testing.T) {
	clf := newTestClassifier(t)

	scores, ok := clf.Scores("sad")
	if !ok {
		t.Fatal("expected scores")
	}
	// single feature normalizes to 1.0
	want := []float64{2.1, 0, -0.1, 0, 0, 0}
	for k := range want {
		if math.Abs(scores[k]-want[k]) > 1e-12 {
			t.Fatalf("score[%d] = %f, want %f", k, scores[k], want[k])
		}
	}
}
