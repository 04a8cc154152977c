package env_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/docket/pkg/env"
)

func TestLookup(t *testing.T) {
	t.Setenv("TEST_ENV_SET", "value")
	t.Setenv("TEST_ENV_EMPTY", "")

	tests := []struct {
		name string
		key  string
		want string
		ok   bool
	}{
		{"set", "TEST_ENV_SET", "value", true},
		{"empty value", "TEST_ENV_EMPTY", "", false},
		{"unset", "TEST_ENV_MISSING", "", false},
		{"empty key", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := env.Lookup(tt.key)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.key, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTypedReaders(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "docket")
	t.Setenv("TEST_ENV_INT", "42")
	t.Setenv("TEST_ENV_INT32", "7")
	t.Setenv("TEST_ENV_FLOAT", "0.85")
	t.Setenv("TEST_ENV_BOOL", "true")
	t.Setenv("TEST_ENV_DURATION", "90s")

	var (
		s   string
		i   int
		i32 int32
		f   float64
		b   bool
		d   string
	)

	for _, err := range []error{
		env.String("TEST_ENV_STRING", &s),
		env.Int("TEST_ENV_INT", &i),
		env.Int32("TEST_ENV_INT32", &i32),
		env.Float("TEST_ENV_FLOAT", &f),
		env.Bool("TEST_ENV_BOOL", &b),
		env.Duration("TEST_ENV_DURATION", &d),
	} {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if s != "docket" {
		t.Errorf("String = %q, want docket", s)
	}
	if i != 42 {
		t.Errorf("Int = %d, want 42", i)
	}
	if i32 != 7 {
		t.Errorf("Int32 = %d, want 7", i32)
	}
	if f != 0.85 {
		t.Errorf("Float = %v, want 0.85", f)
	}
	if !b {
		t.Error("Bool = false, want true")
	}
	if d != "90s" {
		t.Errorf("Duration = %q, want 90s", d)
	}
}

func TestUnsetLeavesDefault(t *testing.T) {
	n := 5
	if err := env.Int("TEST_ENV_UNSET_INT", &n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("Int = %d, want default 5", n)
	}
}

func TestMalformedValues(t *testing.T) {
	t.Setenv("TEST_ENV_BAD", "not-a-number")

	tests := []struct {
		name string
		read func() error
	}{
		{"int", func() error { var n int; return env.Int("TEST_ENV_BAD", &n) }},
		{"int32", func() error { var n int32; return env.Int32("TEST_ENV_BAD", &n) }},
		{"float", func() error { var f float64; return env.Float("TEST_ENV_BAD", &f) }},
		{"bool", func() error { var b bool; return env.Bool("TEST_ENV_BAD", &b) }},
		{"duration", func() error { var d string; return env.Duration("TEST_ENV_BAD", &d) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "TEST_ENV_BAD") {
				t.Errorf("error %q does not name the variable", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Setenv("TEST_ENV_LIST", " @a.gov, ,@b.mil ,")

	list := []string{"default"}
	if err := env.List("TEST_ENV_LIST", &list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"@a.gov", "@b.mil"}
	if !slices.Equal(list, want) {
		t.Errorf("List = %v, want %v", list, want)
	}
}
