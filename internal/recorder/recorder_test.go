package recorder

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"cogbattery/internal/models"
)

func sampleResult() models.TrialResult {
	return models.TrialResult{
		ParticipantID:  "p-1",
		Timestamp:      time.Date(2026, 3, 4, 10, 11, 12, 123456789, time.FixedZone("CET", 3600)),
		TaskType:       "objectCounting",
		Difficulty:     2,
		AttemptNumber:  1,
		Presented:      []string{"apples", "pears", "apples"},
		Expected:       []string{"apples=2", "pears=1", "plums=0"},
		Actual:         []string{"apples=2", "pears=1", "plums=1"},
		IsCorrect:      true,
		ScoreDelta:     2,
		CorrectCount:   2,
		IncorrectCount: 1,
		Categories: []models.CategoryScore{
			{Name: "apples", Expected: 2, Actual: 2, Correct: true},
			{Name: "pears", Expected: 1, Actual: 1, Correct: true},
			{Name: "plums", Expected: 0, Actual: 1},
		},
	}
}

func TestRecordedResultSurvivesJSONRoundTrip(t *testing.T) {
	t.Parallel()

	r := New()
	r.Record(sampleResult())
	empty := sampleResult()
	empty.Actual = []string{}
	empty.Categories = []models.CategoryScore{}
	r.Record(empty)

	for i, res := range r.Flush() {
		data, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("marshal %d: %v", i, err)
		}
		var back models.TrialResult
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %d: %v", i, err)
		}
		if !reflect.DeepEqual(res, back) {
			t.Errorf("result %d changed in round trip:\n got %+v\nwant %+v", i, back, res)
		}
	}
}

func TestFlushReturnsIndependentCopy(t *testing.T) {
	t.Parallel()

	r := New()
	r.Record(sampleResult())
	first := r.Flush()
	first[0].Presented[0] = "mutated"
	first[0].IsCorrect = false

	second := r.Flush()
	if second[0].Presented[0] != "apples" || !second[0].IsCorrect {
		t.Fatalf("stored result was mutated through Flush: %+v", second[0])
	}
}

func TestRecordKeepsOrder(t *testing.T) {
	t.Parallel()

	r := New()
	for d := 3; d <= 5; d++ {
		res := sampleResult()
		res.Difficulty = d
		r.Record(res)
	}
	got := r.Flush()
	if len(got) != 3 || r.Len() != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	for i, res := range got {
		if res.Difficulty != 3+i {
			t.Errorf("result %d difficulty = %d, want %d", i, res.Difficulty, 3+i)
		}
	}
	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len after Reset = %d", r.Len())
	}
}
