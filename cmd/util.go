package cmd

import (
	"strconv"

	"golang.org/x/xerrors"
)

// locationValidator checks that the input parses as a ring coordinate
func locationValidator(input interface{}) error {
	loc, ok := input.(string)
	if !ok {
		return xerrors.New("input is not a string")
	}
	pos, err := strconv.ParseFloat(loc, 64)
	if err != nil {
		return xerrors.Errorf("invalid location: %v", err)
	}
	if pos < 0.0 || pos >= 1.0 {
		return xerrors.New("location must be in [0.0, 1.0)")
	}
	return nil
}
