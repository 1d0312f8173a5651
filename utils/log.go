package utils

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

// PayloadPreviewLen is the maximum number of bytes of a payload that end up in logs.
const PayloadPreviewLen = 64

func ToZeroLogArray[T fmt.Stringer](arr []T) (ret *zerolog.Array) {
	ret = zerolog.Arr()

	for _, elem := range arr {
		ret = ret.Str(elem.String())
	}

	return ret
}

// PayloadPreview quotes a raw notification payload for logging, truncating it
// to PayloadPreviewLen bytes.
func PayloadPreview(b []byte) string {
	if len(b) <= PayloadPreviewLen {
		return strconv.Quote(string(b))
	}

	return strconv.Quote(string(b[:PayloadPreviewLen])) + "..." + strconv.Itoa(len(b)-PayloadPreviewLen) + " more bytes"
}
