package validation_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/validation"
)

func fixedClock(day string) func() time.Time {
	return func() time.Time {
		t, err := time.Parse(model.ISODate, day)
		if err != nil {
			panic(err)
		}
		return t.Add(15 * time.Hour)
	}
}

func TestValidateFieldRules(t *testing.T) {
	engine := validation.New(validation.WithClock(fixedClock("2024-06-15")))

	nameRules := &model.Rules{MinLength: model.Int(2), MaxLength: model.Int(50), Pattern: model.PatternAlpha}
	ageRules := &model.Rules{Min: model.Float(18), Max: model.Float(120)}

	cases := []struct {
		name     string
		value    string
		rules    *model.Rules
		required bool
		want     string
	}{
		{"required blank", "", nil, true, "This field is required"},
		{"required whitespace", "   ", nameRules, true, "This field is required"},
		{"optional blank skips rules", "", nameRules, false, ""},
		{"optional whitespace skips rules", "  ", &model.Rules{MinLength: model.Int(5)}, false, ""},
		{"too short", "A", nameRules, true, "Must be at least 2 characters"},
		{"too long", strings.Repeat("a", 51), nameRules, true, "Must be no more than 50 characters"},
		{"length before pattern", "1", nameRules, true, "Must be at least 2 characters"},
		{"alpha mismatch", "J0hn", nameRules, true, "Only letters are allowed"},
		{"alpha with spaces", "Mary Ann", nameRules, true, ""},
		{"runes counted", "Zoë", &model.Rules{MaxLength: model.Int(3)}, false, ""},
		{"below min", "17", ageRules, false, "Must be at least 18"},
		{"above max", "121", ageRules, false, "Must be no more than 120"},
		{"in range trimmed", " 30 ", ageRules, false, ""},
		{"non numeric min", "abc", ageRules, false, "Must be at least 18"},
		{"non numeric max only", "abc", &model.Rules{Max: model.Float(9.5)}, false, "Must be no more than 9.5"},
		{"nan rejected", "NaN", ageRules, false, "Must be at least 18"},
		{"inf rejected", "inf", ageRules, false, "Must be at least 18"},
		{"infinity rejected by max", "Infinity", &model.Rules{Max: model.Float(9.5)}, false, "Must be no more than 9.5"},
		{"hex float rejected", "0x1p4", ageRules, false, "Must be at least 18"},
		{"underscore digits rejected", "1_000", &model.Rules{Max: model.Float(5000)}, false, "Must be no more than 5000"},
		{"exponent accepted", "2.5e1", ageRules, false, ""},
		{"leading dot accepted", ".5", &model.Rules{Max: model.Float(1)}, false, ""},
		{"email", "a@b", &model.Rules{Pattern: model.PatternEmail}, true, "Please enter a valid email address"},
		{"email ok", "ada@example.com", &model.Rules{Pattern: model.PatternEmail}, true, ""},
		{"phone nine digits", "555123456", &model.Rules{Pattern: model.PatternPhone}, true, "Please enter a valid 10-digit phone number"},
		{"phone ok", "5551234567", &model.Rules{Pattern: model.PatternPhone}, true, ""},
		{"url", "example.com", &model.Rules{Pattern: model.PatternURL}, false, "Please enter a valid URL"},
		{"alphanumeric", "abc-1", &model.Rules{Pattern: model.PatternAlphanumeric}, false, "Only letters and numbers are allowed"},
		{"custom regex", "abc", &model.Rules{Regex: `^\d+$`}, false, "Invalid format"},
		{"custom regex ok", "123", &model.Rules{Regex: `^\d+$`}, false, ""},
		{"future date", "2024-06-16", &model.Rules{MaxDate: model.DateToday}, false, "Date must be on or before today"},
		{"today allowed", "2024-06-15", &model.Rules{MaxDate: model.DateToday}, false, ""},
		{"literal max date", "2021-01-01", &model.Rules{MaxDate: "2020-12-31"}, false, "Date must be on or before 2020-12-31"},
		{"min date", "1899-12-31", &model.Rules{MinDate: "1900-01-01"}, false, "Date must be on or after 1900-01-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := validation.MessageOf(engine.ValidateField(tc.value, tc.rules, tc.required))
			if got != tc.want {
				t.Fatalf("ValidateField(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestValidateFieldReportsRule(t *testing.T) {
	err := validation.ValidateField("x", &model.Rules{MinLength: model.Int(2)}, true)
	var fieldErr *validation.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fieldErr.Rule != validation.RuleMinLength {
		t.Fatalf("expected minLength rule, got %q", fieldErr.Rule)
	}
}

func TestPredicatesRunLast(t *testing.T) {
	reg := validation.NewRegistry()
	reg.MustRegister("even", func(value string) error {
		if len(value)%2 != 0 {
			return errors.New("Must have an even length")
		}
		return nil
	})
	engine := validation.New(validation.WithRegistry(reg))

	rules := &model.Rules{
		MinLength: model.Int(2),
		Custom:    "even",
		Predicate: func(value string) error {
			if value == "zz" {
				return errors.New("zz is reserved")
			}
			return nil
		},
	}

	cases := map[string]string{
		"a":    "Must be at least 2 characters",
		"abc":  "Must have an even length",
		"zz":   "zz is reserved",
		"abcd": "",
	}
	for value, want := range cases {
		if got := validation.MessageOf(engine.ValidateField(value, rules, false)); got != want {
			t.Errorf("ValidateField(%q) = %q, want %q", value, got, want)
		}
	}

	unknown := &model.Rules{Custom: "missing"}
	if err := engine.ValidateField("abc", unknown, false); err == nil {
		t.Fatalf("expected unknown predicate to fail")
	}
}

func TestValidateFormOmitsValidFields(t *testing.T) {
	schema := model.DefaultUserSchema()
	values := map[string]string{
		"firstName":   "J",
		"lastName":    "Doe",
		"email":       "not-an-email",
		"phoneNumber": "5551234567",
		"stale":       "ignored",
	}

	want := validation.Errors{
		"firstName": "Must be at least 2 characters",
		"email":     "Please enter a valid email address",
	}
	got := validation.ValidateForm(values, schema.Fields)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email", "firstName"}, got.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFormTreatsMissingAsBlank(t *testing.T) {
	schema := model.DefaultUserSchema()
	got := validation.ValidateForm(map[string]string{}, schema.Fields)
	if len(got) != 4 {
		t.Fatalf("expected 4 errors, got %v", got)
	}
	for name, msg := range got {
		if msg != validation.RequiredMessage {
			t.Errorf("%s: expected required message, got %q", name, msg)
		}
	}
}

func TestValidateFormIsDeterministic(t *testing.T) {
	schema := model.DefaultUserSchema()
	values := map[string]string{"firstName": "Ann", "email": "x"}
	first := validation.ValidateForm(values, schema.Fields)
	second := validation.ValidateForm(values, schema.Fields)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeat validation differs:\n%s", diff)
	}
}
