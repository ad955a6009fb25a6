package ballot

import (
	"testing"

	"github.com/pkg/errors"
)

func TestParseOption(t *testing.T) {
	cases := []struct {
		in   string
		want Option
		err  error
	}{
		{"yes", Yes, nil},
		{"YES", Yes, nil},
		{" no ", No, nil},
		{"1", Yes, nil},
		{"0", No, nil},
		{"2", 0, ErrInvalidOption},
		{"maybe", 0, ErrInvalidOption},
		{"", 0, ErrInvalidOption},
	}
	for _, c := range cases {
		got, err := ParseOption(c.in)
		if errors.Cause(err) != c.err {
			t.Errorf("ParseOption(%q) error = %v, want %v", c.in, err, c.err)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("ParseOption(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOptionText(t *testing.T) {
	text, err := Yes.MarshalText()
	if err != nil || string(text) != "yes" {
		t.Errorf("Yes.MarshalText() = %q, %v", text, err)
	}
	if _, err := Option(3).MarshalText(); errors.Cause(err) != ErrInvalidOption {
		t.Errorf("expected invalid option, got %v", err)
	}

	var o Option
	if err := o.UnmarshalText([]byte("no")); err != nil || o != No {
		t.Errorf("UnmarshalText(no) = %v, %v", o, err)
	}
	if err := o.UnmarshalText([]byte("abstain")); errors.Cause(err) != ErrInvalidOption {
		t.Errorf("expected invalid option, got %v", err)
	}
}

func TestOptionString(t *testing.T) {
	if Option(5).String() != "option(5)" {
		t.Errorf("unexpected string %q", Option(5).String())
	}
}
