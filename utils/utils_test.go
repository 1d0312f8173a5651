package utils_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/robertof/go-keetronics-client/utils"
)

var (
	errA = errors.New("a")
	errB = errors.New("b")
)

func TestFirstMatch(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", errB)

	if got, ok := utils.FirstMatch(wrapped, errA, errB); !ok || got != errB {
		t.Fatalf("FirstMatch(wrapped b): got %v, %v", got, ok)
	}

	if _, ok := utils.FirstMatch(nil, errA); ok {
		t.Fatalf("FirstMatch(nil) matched")
	}

	if utils.ErrorIsAnyOf(errors.New("c"), errA, errB) {
		t.Fatalf("ErrorIsAnyOf matched an unrelated error")
	}
}

func TestPayloadPreview(t *testing.T) {
	if got := utils.PayloadPreview([]byte("Key 1\n")); got != `"Key 1\n"` {
		t.Fatalf("PayloadPreview(short): got %s", got)
	}

	long := []byte(strings.Repeat("x", utils.PayloadPreviewLen+10))

	if got := utils.PayloadPreview(long); !strings.HasSuffix(got, "...10 more bytes") {
		t.Fatalf("PayloadPreview(long): got %s", got)
	}
}

func TestSlices(t *testing.T) {
	if got := utils.Reverse([]byte{1, 2, 3}); !reflect.DeepEqual(got, []byte{3, 2, 1}) {
		t.Fatalf("Reverse: got %v", got)
	}

	if got := utils.RangeExcept(1, 4, 2); !reflect.DeepEqual(got, []int{1, 3, 4}) {
		t.Fatalf("RangeExcept(1, 4, 2): got %v", got)
	}

	if got := utils.RangeExcept(1, 1, 1); got != nil {
		t.Fatalf("RangeExcept(1, 1, 1): got %v, wanted nil", got)
	}
}
