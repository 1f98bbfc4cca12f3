package emotion

import "testing"

func TestResolveNegativeKeywordForcesAnger(t *testing.T) {
	for _, profile := range []OverrideConfig{ListenerProfile(), LumaProfile()} {
		o := NewOverrider(profile)
		for _, candidate := range []Label{Joy, Love, Surprise} {
			got, next := o.Resolve("you are stupid and I hate this, it is a long sentence today", candidate, None)
			if got != Anger || next != Anger {
				t.Fatalf("candidate %s: got (%s, %s), want (Anger, Anger)", candidate, got, next)
			}
		}
	}
}

func TestResolveNegativeKeywordLeavesNegativeCandidates(t *testing.T) {
	o := NewOverrider(LumaProfile())
	got, _ := o.Resolve("I hate how sad everything feels lately", Sadness, None)
	if got != Sadness {
		t.Fatalf("got %s, want Sadness", got)
	}
}

func TestResolveScenarios(t *testing.T) {
	tests := []struct {
		name      string
		profile   OverrideConfig
		text      string
		candidate Label
		last      Label
		want      Label
		wantLast  Label
	}{
		{
			name:      "anger passes through",
			profile:   LumaProfile(),
			text:      "I am furious with him",
			candidate: Anger,
			last:      None,
			want:      Anger,
			wantLast:  Anger,
		},
		{
			name:      "question during fear episode keeps fear",
			profile:   LumaProfile(),
			text:      "what?",
			candidate: Surprise,
			last:      Fear,
			want:      Fear,
			wantLast:  Fear,
		},
		{
			name:      "short positive acknowledgement stays joy",
			profile:   LumaProfile(),
			text:      "ok",
			candidate: Joy,
			last:      None,
			want:      Joy,
			wantLast:  Joy,
		},
		{
			name:      "listener profile has no positive guard",
			profile:   ListenerProfile(),
			text:      "ok",
			candidate: Joy,
			last:      None,
			want:      Neutral,
			wantLast:  None,
		},
		{
			name:      "negative keyword on joy",
			profile:   LumaProfile(),
			text:      "you are stupid and I hate this",
			candidate: Joy,
			last:      None,
			want:      Anger,
			wantLast:  Anger,
		},
		{
			name:      "question without negative context is neutral",
			profile:   LumaProfile(),
			text:      "Where did you read about that book last year",
			candidate: Joy,
			last:      Love,
			want:      Neutral,
			wantLast:  Love,
		},
		{
			name:      "long statement keeps joy",
			profile:   LumaProfile(),
			text:      "I finally finished the painting I started last spring",
			candidate: Joy,
			last:      Sadness,
			want:      Joy,
			wantLast:  Joy,
		},
		{
			name:      "seven words count as short for listener",
			profile:   ListenerProfile(),
			text:      "I finished the painting I started yesterday",
			candidate: Surprise,
			last:      Sadness,
			want:      Sadness,
			wantLast:  Sadness,
		},
		{
			name:      "love is not neutralized",
			profile:   ListenerProfile(),
			text:      "miss you",
			candidate: Love,
			last:      Fear,
			want:      Love,
			wantLast:  Love,
		},
		{
			name:      "invalid label becomes unknown",
			profile:   LumaProfile(),
			text:      "what is this",
			candidate: Label("Bored"),
			last:      Sadness,
			want:      Unknown,
			wantLast:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next := NewOverrider(tt.profile).Resolve(tt.text, tt.candidate, tt.last)
			if got != tt.want {
				t.Fatalf("resolved = %s, want %s", got, tt.want)
			}
			if next != tt.wantLast {
				t.Fatalf("last = %q, want %q", next, tt.wantLast)
			}
		})
	}
}

func TestResolveContinuityCarriesSadness(t *testing.T) {
	for _, text := range []string{"why?", "really", "how so"} {
		got, next := NewOverrider(LumaProfile()).Resolve(text, Surprise, Sadness)
		if got != Sadness || next != Sadness {
			t.Fatalf("%q: got (%s, %s), want (Sadness, Sadness)", text, got, next)
		}
	}
}

func TestResolveNeutralDoesNotPersist(t *testing.T) {
	o := NewOverrider(ListenerProfile())
	for _, last := range []Label{None, Joy, Love, Surprise, Unknown} {
		got, next := o.Resolve("hm", Joy, last)
		if got != Neutral {
			t.Fatalf("last %q: resolved %s, want Neutral", last, got)
		}
		if next != last {
			t.Fatalf("last %q changed to %q", last, next)
		}
	}
}

func TestResolveUsesConfiguredKeywords(t *testing.T) {
	cfg := OverrideConfig{
		NegativeKeywords: []string{"Grr"},
		ShortThreshold:   0,
	}
	got, _ := NewOverrider(cfg).Resolve("GRR fine then", Joy, None)
	if got != Anger {
		t.Fatalf("got %s, want Anger", got)
	}

	got, _ = NewOverrider(cfg).Resolve("fine", Joy, None)
	if got != Joy {
		t.Fatalf("zero threshold should never treat text as short, got %s", got)
	}
}

func TestOverrideConfigValidate(t *testing.T) {
	if err := LumaProfile().Validate(); err != nil {
		t.Fatalf("luma profile invalid: %v", err)
	}
	if err := (OverrideConfig{ShortThreshold: -1}).Validate(); err == nil {
		t.Fatal("expected error for negative threshold")
	}
	if err := (OverrideConfig{QuestionKeywords: []string{" "}}).Validate(); err == nil {
		t.Fatal("expected error for blank keyword")
	}
}

func TestProfileNamesSorted(t *testing.T) {
	profiles := Profiles()
	profiles["strict"] = LumaProfile()

	got := ProfileNames(profiles)
	want := []string{ProfileListener, ProfileLuma, "strict"}
	if len(got) != len(want) {
		t.Fatalf("ProfileNames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ProfileNames = %v, want %v", got, want)
		}
	}
}
