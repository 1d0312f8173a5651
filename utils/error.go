package utils

import "errors"

// FirstMatch returns the first target that err wraps, in argument order.
func FirstMatch(err error, targets... error) (error, bool) {
	if err == nil {
		return nil, false
	}

	for _, target := range targets {
		if errors.Is(err, target) {
			return target, true
		}
	}

	return nil, false
}

func ErrorIsAnyOf(err error, targets... error) bool {
	_, ok := FirstMatch(err, targets...)
	return ok
}
