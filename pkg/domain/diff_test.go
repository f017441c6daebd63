package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	city := StepCity
	visible := true

	tests := []struct {
		name     string
		old      *State
		new      *State
		wantDiff *StateDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				SessionID:    "sess-1",
				Step:         StepCity,
				Visible:      true,
				SelectedType: "pg",
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Step:      &city,
				Visible:   &visible,
				Fields:    map[string]any{"selected_type": "pg"},
			},
		},
		{
			name: "No Changes",
			old: &State{
				SessionID:    "sess-1",
				Step:         StepCity,
				SelectedType: "pg",
			},
			new: &State{
				SessionID:    "sess-1",
				Step:         StepCity,
				SelectedType: "pg",
			},
			wantDiff: nil,
		},
		{
			name: "Selection Added",
			old: &State{
				SessionID:    "sess-1",
				Step:         StepBudget,
				SelectedType: "pg",
				SelectedCity: "Pune",
			},
			new: &State{
				SessionID:      "sess-1",
				Step:           StepBudget,
				SelectedType:   "pg",
				SelectedCity:   "Pune",
				SelectedBudget: &Budget{Min: 0, Max: 5000},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Fields:    map[string]any{"selected_budget": Budget{Min: 0, Max: 5000}},
			},
		},
		{
			name: "Step Change",
			old:  &State{SessionID: "sess-1", Step: StepAccommodationType},
			new:  &State{SessionID: "sess-1", Step: StepCity, SelectedType: "flat"},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Step:      &city,
				Fields:    map[string]any{"selected_type": "flat"},
			},
		},
		{
			name: "Reset Clears Fields",
			old: &State{
				SelectedType:      "pg",
				SelectedAmenities: []string{"wifi"},
			},
			new: &State{},
			wantDiff: &StateDiff{
				Fields: map[string]any{"selected_type": nil, "selected_amenities": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Fields, tt.wantDiff.Fields) {
				t.Errorf("Diff().Fields = %v, want %v", got.Fields, tt.wantDiff.Fields)
			}
			if !equalPtr(got.Step, tt.wantDiff.Step) {
				t.Errorf("Diff().Step = %v, want %v", got.Step, tt.wantDiff.Step)
			}
			if !equalPtr(got.Visible, tt.wantDiff.Visible) {
				t.Errorf("Diff().Visible = %v, want %v", got.Visible, tt.wantDiff.Visible)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Fields Omitted", func(t *testing.T) {
		s1 := &State{Step: StepCity, SelectedType: "pg"}
		s2 := &State{Step: StepBudget, SelectedType: "pg"}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"fields"`) {
			t.Errorf("JSON should not contain 'fields' when unchanged, got: %s", string(bytes))
		}
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &State{SelectedCity: "Pune"}
		s2 := &State{}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"selected_city":null`) {
			t.Errorf("JSON should contain 'selected_city':null for deletion, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
