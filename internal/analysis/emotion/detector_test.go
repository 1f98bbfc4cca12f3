package emotion

import "testing"

func TestDetectorScenarios(t *testing.T) {
	detector := NewDetector(newTestClassifier(t), LumaProfile())

	res := detector.Detect("I am furious with him", None)
	if res.Candidate != Anger || res.Emotion != Anger || res.LastEmotion != Anger {
		t.Fatalf("unexpected result %+v", res)
	}

	// Surprise from "wow", carried over from the previous fear episode.
	res = detector.Detect("wow what?", Fear)
	if res.Candidate != Surprise {
		t.Fatalf("expected Surprise candidate, got %s", res.Candidate)
	}
	if res.Emotion != Fear || res.LastEmotion != Fear {
		t.Fatalf("expected fear continuity, got %+v", res)
	}
}

func TestDetectorFallbackClassGoesThroughOverride(t *testing.T) {
	detector := NewDetector(newTestClassifier(t), LumaProfile())

	res := detector.Detect("xyzzy plugh", None)
	if res.Candidate != Sadness {
		t.Fatalf("expected first class Sadness, got %s", res.Candidate)
	}
	if res.Emotion != Sadness || res.LastEmotion != Sadness {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDetectorDegradedModeIsUnknown(t *testing.T) {
	detector := NewDetector(nil, ListenerProfile())
	if !detector.Degraded() {
		t.Fatal("expected degraded detector")
	}

	res := detector.Detect("I am so happy", Sadness)
	if res.Candidate != Unknown || res.Emotion != Unknown {
		t.Fatalf("expected Unknown, got %+v", res)
	}
}

func TestDetectorRecoversFromPredictionPanic(t *testing.T) {
	// A classifier without an artifact panics on lookup.
	detector := NewDetector(NewClassifier(nil), LumaProfile())

	if got := detector.Candidate("anything at all"); got != Unknown {
		t.Fatalf("expected Unknown after panic, got %s", got)
	}
}
