package ballot

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Option is a vote choice. The numeric values are the canonical encoding.
type Option uint8

const (
	No  Option = 0
	Yes Option = 1
)

func (o Option) Valid() bool {
	return o == No || o == Yes
}

func (o Option) String() string {
	switch o {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "option(" + strconv.Itoa(int(o)) + ")"
}

// ParseOption accepts "yes"/"no" in any case as well as "1"/"0".
func ParseOption(s string) (Option, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "1":
		return Yes, nil
	case "no", "0":
		return No, nil
	}
	return 0, errors.Wrapf(ErrInvalidOption, "%q", s)
}

func (o Option) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, errors.Wrapf(ErrInvalidOption, "%d", uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *Option) UnmarshalText(text []byte) error {
	parsed, err := ParseOption(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
