package emotion

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewArtifactRejectsShapeMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ArtifactFile)
	}{
		{"no classes", func(f *ArtifactFile) { f.Classes = nil }},
		{"empty vocabulary", func(f *ArtifactFile) { f.Vocabulary = map[string]int{} }},
		{"idf too short", func(f *ArtifactFile) { f.IDF = f.IDF[:3] }},
		{"missing intercept", func(f *ArtifactFile) { f.Intercept = f.Intercept[:5] }},
		{"missing coef row", func(f *ArtifactFile) { f.Coef = f.Coef[:5] }},
		{"short coef row", func(f *ArtifactFile) { f.Coef[2] = []float64{1, 2} }},
		{"index out of range", func(f *ArtifactFile) { f.Vocabulary["wow"] = 17 }},
		{"duplicate index", func(f *ArtifactFile) { f.Vocabulary["wow"] = 0 }},
		{"infinite idf", func(f *ArtifactFile) { f.IDF[1] = math.Inf(1) }},
		{"NaN coef", func(f *ArtifactFile) { f.Coef[3][0] = math.NaN() }},
		{"infinite coef", func(f *ArtifactFile) { f.Coef[0][5] = math.Inf(-1) }},
		{"NaN intercept", func(f *ArtifactFile) { f.Intercept[2] = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := testArtifactFile()
			tt.mutate(&file)
			if _, err := NewArtifact(file); !errors.Is(err, ErrInvalidArtifact) {
				t.Fatalf("expected ErrInvalidArtifact, got %v", err)
			}
		})
	}
}

func TestDecodeArtifactAcceptsStringClasses(t *testing.T) {
	raw := `{
		"vocabulary": {"angry": 0, "glad": 1},
		"idf": [1.0, 1.0],
		"coef": [[0, 1], [1, 0]],
		"intercept": [0, 0],
		"classes": ["joy", "anger"]
	}`

	artifact, err := DecodeArtifact(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeArtifact err: %v", err)
	}
	clf := NewClassifier(artifact)
	if got := clf.PredictLabel("so angry"); got != Anger {
		t.Fatalf("PredictLabel = %s, want Anger", got)
	}
	if got := clf.PredictLabel("glad"); got != Joy {
		t.Fatalf("PredictLabel = %s, want Joy", got)
	}
}

func TestDecodeArtifactRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeArtifact(strings.NewReader(`{"vocabulary": [`))
	if !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("expected ErrInvalidArtifact, got %v", err)
	}
}

func TestLoadArtifactPlainAndGzip(t *testing.T) {
	dir := t.TempDir()
	payload, err := json.Marshal(testArtifactFile())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	plain := filepath.Join(dir, "model_params.json")
	if err := os.WriteFile(plain, payload, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	compressed := filepath.Join(dir, "model_params.json.gz")
	f, err := os.Create(compressed)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write(payload); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, path := range []string{plain, compressed} {
		artifact, err := LoadArtifact(path)
		if err != nil {
			t.Fatalf("LoadArtifact(%s) err: %v", path, err)
		}
		if artifact.NumFeatures() != 6 {
			t.Fatalf("expected 6 features, got %d", artifact.NumFeatures())
		}
		if got := NewClassifier(artifact).PredictLabel("furious"); got != Anger {
			t.Fatalf("PredictLabel = %s, want Anger", got)
		}
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	if _, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestArtifactSchemaListsFields(t *testing.T) {
	schema := ArtifactSchema()
	for _, field := range []string{"vocabulary", "idf", "coef", "intercept", "classes"} {
		if _, ok := schema.Properties.Get(field); !ok {
			t.Fatalf("schema missing property %q", field)
		}
	}
	if len(schema.Required) != 5 {
		t.Fatalf("expected 5 required fields, got %v", schema.Required)
	}
}

func TestLabelForClass(t *testing.T) {
	tests := []struct {
		class ClassID
		want  Label
	}{
		{"0", Sadness},
		{"3", Anger},
		{"5", Surprise},
		{"9", Unknown},
		{"Fear", Fear},
		{"neutral", Unknown},
		{"bogus", Unknown},
	}
	for _, tt := range tests {
		if got := LabelForClass(tt.class); got != tt.want {
			t.Fatalf("LabelForClass(%q) = %s, want %s", tt.class, got, tt.want)
		}
	}
}
