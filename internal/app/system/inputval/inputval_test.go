package inputval

import (
	"errors"
	"testing"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
)

type sample struct {
	FullName   string   `json:"fullName" validate:"required,min=2,max=100"`
	Department string   `json:"department" validate:"required,department"`
	RollNo     string   `json:"rollNo" validate:"required,roll_no"`
	Session    string   `json:"session" validate:"required,session_year"`
	Email      string   `json:"email" validate:"required,email"`
	CGPA       *float64 `json:"cgpa" validate:"required,gte=0,lte=4"`
}

func TestValidate_AllFieldsReported(t *testing.T) {
	res := Validate(sample{})
	if !res.HasErrors() {
		t.Fatal("expected errors")
	}
	if got := len(res.Errors); got != 6 {
		t.Errorf("expected 6 field errors, got %d: %v", got, res.Messages())
	}
	if res.First() != "Missing or empty field: fullName." {
		t.Errorf("First() = %q", res.First())
	}
}

func TestValidate_CustomTags(t *testing.T) {
	cgpa := 3.1
	res := Validate(sample{
		FullName:   "Ayesha Khan",
		Department: "EE",
		RollNo:     "2101-085",
		Session:    "2021/2025",
		Email:      "ayesha@example.com",
		CGPA:       &cgpa,
	})
	want := map[string]string{
		"department": "department must be one of IT, CS, SE.",
		"rollNo":     "Roll number must be in format 21011519-085.",
		"session":    "session must be in format YYYY-YYYY (e.g. 2021-2025).",
	}
	if len(res.Errors) != len(want) {
		t.Fatalf("got %d errors, want %d: %v", len(res.Errors), len(want), res.Messages())
	}
	for _, fe := range res.Errors {
		if want[fe.Field] != fe.Message {
			t.Errorf("%s: got %q, want %q", fe.Field, fe.Message, want[fe.Field])
		}
	}
}

func TestValidate_ZeroCGPAIsPresent(t *testing.T) {
	cgpa := 0.0
	res := Validate(sample{
		FullName:   "Bilal Ahmed",
		Department: "CS",
		RollNo:     "21011519-085",
		Session:    "2021-2025",
		Email:      "bilal@example.com",
		CGPA:       &cgpa,
	})
	if res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Messages())
	}
}

func TestResult_Err(t *testing.T) {
	if (Result{}).Err() != nil {
		t.Error("empty result must yield nil error")
	}
	err := Validate(sample{}).Err()
	if !errors.Is(err, apierr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if e := apierr.As(err); len(e.Fields) != 6 {
		t.Errorf("expected 6 field messages, got %v", e.Fields)
	}
}

func TestPatterns(t *testing.T) {
	tests := []struct {
		in       string
		year, rn bool
	}{
		{"2021-2025", true, false},
		{"21011519-085", false, true},
		{"2021-25", false, false},
		{"", false, false},
		{" 2021-2025", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsSessionYear(tt.in); got != tt.year {
				t.Errorf("IsSessionYear(%q) = %v", tt.in, got)
			}
			if got := IsRollNo(tt.in); got != tt.rn {
				t.Errorf("IsRollNo(%q) = %v", tt.in, got)
			}
		})
	}
}
