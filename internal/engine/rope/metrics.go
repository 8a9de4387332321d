package rope

import "unicode/utf8"

// ByteOffset represents an absolute byte position in the rope.
type ByteOffset uint64

// Point represents a line/column position.
// Line and Column are both 0-indexed; Column counts bytes.
type Point struct {
	Line   uint32
	Column uint32
}

// TextSummary holds aggregated metrics for a text span.
// Summaries form a monoid under Add, which is what lets internal nodes
// answer positional queries without touching their leaves.
type TextSummary struct {
	// Bytes is the UTF-8 byte count.
	Bytes ByteOffset

	// Chars is the number of Unicode scalar values.
	Chars uint64

	// UTF16Units is the UTF-16 code unit count (for LSP compatibility).
	UTF16Units uint64

	// Lines is the number of newline characters.
	Lines uint32

	// Flags indicate text properties for fast paths.
	Flags TextFlags
}

// TextFlags indicate text properties for optimization fast paths.
type TextFlags uint8

const (
	// FlagASCII indicates all characters are ASCII (< 128).
	FlagASCII TextFlags = 1 << iota

	// FlagHasNewlines indicates the text contains newline characters.
	FlagHasNewlines
)

// Add combines two summaries.
func (s TextSummary) Add(other TextSummary) TextSummary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}

	result := TextSummary{
		Bytes:      s.Bytes + other.Bytes,
		Chars:      s.Chars + other.Chars,
		UTF16Units: s.UTF16Units + other.UTF16Units,
		Lines:      s.Lines + other.Lines,
		Flags:      s.Flags & other.Flags & FlagASCII,
	}
	if (s.Flags|other.Flags)&FlagHasNewlines != 0 {
		result.Flags |= FlagHasNewlines
	}
	return result
}

// IsZero returns true if this is the identity summary.
func (s TextSummary) IsZero() bool {
	return s.Bytes == 0
}

// ComputeSummary calculates metrics for a string.
func ComputeSummary(s string) TextSummary {
	sum := TextSummary{Flags: FlagASCII}
	if len(s) == 0 {
		return sum
	}

	sum.Bytes = ByteOffset(len(s))
	for _, r := range s {
		sum.Chars++
		if r <= 0xFFFF {
			sum.UTF16Units++
		} else {
			sum.UTF16Units += 2
		}
		if r >= utf8.RuneSelf {
			sum.Flags &^= FlagASCII
		}
		if r == '\n' {
			sum.Lines++
			sum.Flags |= FlagHasNewlines
		}
	}
	return sum
}

// charToByteInString returns the byte index of the n-th character of s.
// n past the end returns len(s).
func charToByteInString(s string, n uint64) int {
	if n == 0 {
		return 0
	}
	var count uint64
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// nthNewline returns the byte index of the n-th newline (1-indexed) in s,
// or -1 if s holds fewer than n newlines.
func nthNewline(s string, n uint32) int {
	if n == 0 {
		return -1
	}
	var count uint32
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}
