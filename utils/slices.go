package utils

// props to: https://stackoverflow.com/a/28058324
func Reverse[S ~[]E, E any](s S) S {
  out := make(S, len(s))
  copy(out, s)

  for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
    out[i], out[j] = out[j], out[i]
  }

  return out
}

// RangeExcept returns the integers in [from, to] other than skip, or nil if none are left.
func RangeExcept(from, to, skip int) (out []int) {
  for i := from; i <= to; i += 1 {
    if i != skip {
      out = append(out, i)
    }
  }

  return out
}
