package core

import (
	"errors"
	"testing"
	"time"
)

func TestSubmissionValidate(t *testing.T) {
	valid := Submission{PlayerName: "Ana", PlayerAge: "10 anos", PlayerSchool: "Escola Municipal", Score: Int64(90)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	cases := map[string]Submission{
		"playerName":   {PlayerName: "  ", PlayerAge: "9", PlayerSchool: "x", Score: Int64(1)},
		"playerAge":    {PlayerName: "a", PlayerSchool: "x", Score: Int64(1)},
		"playerSchool": {PlayerName: "a", PlayerAge: "9", Score: Int64(1)},
		"score":        {PlayerName: "a", PlayerAge: "9", PlayerSchool: "x"},
	}
	for field, sub := range cases {
		err := sub.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("%s: expected validation error on field, got %v", field, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation match", field)
		}
	}
}

func TestSubmissionNegativeScoreIsValid(t *testing.T) {
	sub := Submission{PlayerName: "a", PlayerAge: "9", PlayerSchool: "x", Score: Int64(-40)}
	if err := sub.Validate(); err != nil {
		t.Fatalf("negative scores are accepted, got %v", err)
	}
}

func TestSubmissionRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	rec := Submission{PlayerName: " João ", PlayerAge: "10 anos", PlayerSchool: "Escola", Score: Int64(150), Level: 5}.Record(at)
	if rec.ID != 0 {
		t.Fatalf("id must be left for the store, got %d", rec.ID)
	}
	if rec.PlayerName != "João" || rec.Score != 150 || rec.Level != 5 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.SubmittedAt.Location() != time.UTC || !rec.SubmittedAt.Equal(at) {
		t.Fatalf("expected UTC timestamp equal to input, got %v", rec.SubmittedAt)
	}
}

func TestUnsupportedFormatIsValidation(t *testing.T) {
	if !errors.Is(ErrUnsupportedFormat, ErrValidation) {
		t.Fatal("unsupported format should be a validation error")
	}
}
