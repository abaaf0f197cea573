package validator

import "testing"

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func TestValidateStructSuccess(t *testing.T) {
	err := ValidateStruct(samplePayload{Email: "jane@example.com", Name: "Jane"})
	if err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
}

func TestValidateStructFailureReportsJSONNames(t *testing.T) {
	err := ValidateStruct(samplePayload{Email: "not-an-email", Name: "J"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	ve, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(ve) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(ve))
	}
	if ve[0].Field != "email" {
		t.Fatalf("expected json field name, got %s", ve[0].Field)
	}
}

func TestIsEmail(t *testing.T) {
	cases := map[string]bool{
		"jane@example.com":      true,
		"j.doe+tag@sub.example": true,
		"":                      false,
		"not-an-email":          false,
		"missing@domain@twice":  false,
	}

	for value, want := range cases {
		if got := IsEmail(value); got != want {
			t.Fatalf("IsEmail(%q) = %v, want %v", value, got, want)
		}
	}
}
