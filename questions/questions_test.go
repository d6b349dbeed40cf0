package questions

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	set, err := Lookup("team-health")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if set.Len() == 0 {
		t.Fatal("team-health set has no questions")
	}

	// Every question must carry coherent scale metadata
	for i, q := range set.Questions {
		if q.Min >= q.Max {
			t.Errorf("question %d: min %d not below max %d", i, q.Min, q.Max)
		}
		switch q.Scale {
		case "balance":
			if q.Optimal == nil {
				t.Errorf("question %d: balance scale without optimal value", i)
			} else if !q.InBounds(*q.Optimal) {
				t.Errorf("question %d: optimal %d outside bounds", i, *q.Optimal)
			}
		case "maximal":
			if q.Optimal != nil {
				t.Errorf("question %d: maximal scale with optimal value", i)
			}
		default:
			t.Errorf("question %d: unknown scale %q", i, q.Scale)
		}
	}
}

func TestLookupUnknownSet(t *testing.T) {
	_, err := Lookup("does-not-exist")
	if err == nil {
		t.Fatal("expected error for unknown set")
	}
	if !errors.Is(err, ErrUnknownSet) {
		t.Errorf("expected ErrUnknownSet, got %v", err)
	}
}

func TestQuestionIndexBounds(t *testing.T) {
	set, _ := Lookup(DefaultSetID)

	if _, err := set.Question(0); err != nil {
		t.Errorf("Question(0) error = %v", err)
	}
	if _, err := set.Question(set.Len() - 1); err != nil {
		t.Errorf("Question(last) error = %v", err)
	}
	if _, err := set.Question(-1); err == nil {
		t.Error("Question(-1) should fail")
	}
	if _, err := set.Question(set.Len()); err == nil {
		t.Error("Question(N) should fail")
	}
}

func TestInBounds(t *testing.T) {
	q := Question{Scale: "balance", Min: -5, Max: 5}

	tests := []struct {
		value int
		want  bool
	}{
		{-5, true},
		{0, true},
		{5, true},
		{-6, false},
		{6, false},
	}

	for _, tt := range tests {
		if got := q.InBounds(tt.value); got != tt.want {
			t.Errorf("InBounds(%d) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
