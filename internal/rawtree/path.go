package rawtree

import (
	"strconv"
	"strings"
)

// Segments splits a dot/bracket path. "a.b[1].c" and "a.b.1.c" produce the
// same segments; empty segments are dropped.
func Segments(path string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i+1:], ']')
			if end < 0 {
				// unterminated bracket: keep the rest as one segment
				cur.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			cur.WriteString(path[i+1 : i+1+end])
			flush()
			i += end + 1
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// Lookup walks root along path. It reports false as soon as a segment cannot
// be followed, and also when the value found is null.
func Lookup(root Value, path string) (Value, bool) {
	cur := root
	for _, seg := range Segments(path) {
		switch cur.kind {
		case KindObject:
			next, ok := cur.obj[seg]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.arr) {
				return Value{}, false
			}
			cur = cur.arr[idx]
		default:
			return Value{}, false
		}
	}
	if cur.Missing() {
		return Value{}, false
	}
	return cur, true
}

// Resolve returns the value at path, or def when any segment is absent, has
// the wrong shape, or the final value is null.
func Resolve(root Value, path string, def Value) Value {
	if v, ok := Lookup(root, path); ok {
		return v
	}
	return def
}

// First resolves each candidate path in order and returns the first hit.
func First(root Value, paths []string) (Value, bool) {
	for _, p := range paths {
		if v, ok := Lookup(root, p); ok {
			return v, true
		}
	}
	return Value{}, false
}
