package rope

import (
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	r := New()
	if r.Len() != 0 || r.CharLen() != 0 {
		t.Errorf("New rope should be empty, got %d bytes %d chars", r.Len(), r.CharLen())
	}
	if !r.IsEmpty() {
		t.Error("New rope should be empty")
	}
	if r.LineCount() != 1 {
		t.Errorf("New rope should have 1 line, got %d", r.LineCount())
	}

	var zero Rope
	if zero.String() != "" || zero.LineCount() != 1 || zero.CharToByte(3) != 0 {
		t.Error("zero Rope should behave as empty")
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single char", "a"},
		{"with newline", "hello\nworld"},
		{"unicode", "héllo 世界 🌍"},
		{"spans chunks", strings.Repeat("abcdefghij", 100)},
		{"deep tree", strings.Repeat("ü\n", 20000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.input)
			if r.String() != tt.input {
				t.Errorf("String() mismatch")
			}
			if r.Len() != ByteOffset(len(tt.input)) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.input))
			}
			if r.CharLen() != uint64(utf8.RuneCountInString(tt.input)) {
				t.Errorf("CharLen() = %d, want %d", r.CharLen(), utf8.RuneCountInString(tt.input))
			}
			if got, want := r.LineCount(), uint32(strings.Count(tt.input, "\n")+1); got != want {
				t.Errorf("LineCount() = %d, want %d", got, want)
			}
		})
	}
}

func TestInsertDeleteReplace(t *testing.T) {
	tests := []struct {
		name string
		edit func(Rope) Rope
		want string
	}{
		{"insert start", func(r Rope) Rope { return r.Insert(0, ">") }, ">hello world"},
		{"insert middle", func(r Rope) Rope { return r.Insert(5, ",") }, "hello, world"},
		{"insert end", func(r Rope) Rope { return r.Insert(11, "!") }, "hello world!"},
		{"insert past end", func(r Rope) Rope { return r.Insert(99, "!") }, "hello world!"},
		{"delete middle", func(r Rope) Rope { return r.Delete(5, 11) }, "hello"},
		{"delete all", func(r Rope) Rope { return r.Delete(0, 11) }, ""},
		{"delete clamped", func(r Rope) Rope { return r.Delete(6, 50) }, "hello "},
		{"delete empty range", func(r Rope) Rope { return r.Delete(4, 4) }, "hello world"},
		{"replace", func(r Rope) Rope { return r.Replace(0, 5, "goodbye") }, "goodbye world"},
		{"replace with empty", func(r Rope) Rope { return r.Replace(5, 11, "") }, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString("hello world")
			got := tt.edit(r)
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
			if r.String() != "hello world" {
				t.Errorf("original modified: %q", r.String())
			}
		})
	}
}

func TestSplitConcatLarge(t *testing.T) {
	text := strings.Repeat("line of text ☃\n", 3000)
	r := FromString(text)

	for _, at := range []int{0, 1, 255, 256, 4096, len(text) / 2, len(text) - 1, len(text)} {
		left, right := r.Split(ByteOffset(at))
		if left.String() != text[:at] || right.String() != text[at:] {
			t.Fatalf("Split(%d) produced wrong halves", at)
		}
		joined := left.Concat(right)
		if joined.String() != text {
			t.Fatalf("Concat after Split(%d) lost text", at)
		}
		if joined.Summary() != r.Summary() {
			t.Fatalf("Concat after Split(%d) summary = %+v, want %+v", at, joined.Summary(), r.Summary())
		}
	}
}

func TestManySmallEditsStayBalanced(t *testing.T) {
	r := New()
	var want strings.Builder
	for i := 0; i < 5000; i++ {
		r = r.Insert(r.Len(), "ab\n")
		want.WriteString("ab\n")
	}
	if r.String() != want.String() {
		t.Fatal("content mismatch after appends")
	}
	if r.Height() > 12 {
		t.Errorf("Height() = %d after 5000 appends", r.Height())
	}
	assertUniformHeights(t, r.root)
}

func assertUniformHeights(t *testing.T, n *Node) {
	t.Helper()
	if n.IsLeaf() {
		return
	}
	for i, child := range n.children {
		if child.height+1 != n.height {
			t.Fatalf("child height %d under node of height %d", child.height, n.height)
		}
		if n.childSummaries[i] != child.summary {
			t.Fatalf("stale child summary at %d", i)
		}
		assertUniformHeights(t, child)
	}
}

func TestCharConversions(t *testing.T) {
	text := "aé世🌍\nb"
	r := FromString(text)

	if r.CharLen() != 6 {
		t.Fatalf("CharLen() = %d, want 6", r.CharLen())
	}
	wantBytes := []ByteOffset{0, 1, 3, 6, 10, 11, 12}
	for c, want := range wantBytes {
		if got := r.CharToByte(uint64(c)); got != want {
			t.Errorf("CharToByte(%d) = %d, want %d", c, got, want)
		}
		if got := r.ByteToChar(want); got != uint64(c) {
			t.Errorf("ByteToChar(%d) = %d, want %d", want, got, c)
		}
	}
	if got := r.CharToByte(100); got != r.Len() {
		t.Errorf("CharToByte past end = %d, want %d", got, r.Len())
	}
	if got := r.ByteToUTF16(10); got != 5 {
		t.Errorf("ByteToUTF16(10) = %d, want 5", got)
	}
	if got := r.UTF16Len(); got != 7 {
		t.Errorf("UTF16Len() = %d, want 7", got)
	}
}

func TestCharConversionsAcrossChunks(t *testing.T) {
	text := strings.Repeat("ñ", 2000) + "x" + strings.Repeat("日", 500)
	r := FromString(text)
	runes := []rune(text)

	for _, c := range []int{0, 1, 127, 128, 999, 1999, 2000, 2001, 2250, len(runes)} {
		want := ByteOffset(len(string(runes[:c])))
		if got := r.CharToByte(uint64(c)); got != want {
			t.Errorf("CharToByte(%d) = %d, want %d", c, got, want)
		}
		if got := r.ByteToChar(want); got != uint64(c) {
			t.Errorf("ByteToChar(%d) = %d, want %d", want, got, c)
		}
	}
}

func TestLines(t *testing.T) {
	r := FromString("first\nsecond\n\nfourth")

	starts := []ByteOffset{0, 6, 13, 14}
	ends := []ByteOffset{5, 12, 13, 20}
	texts := []string{"first", "second", "", "fourth"}
	for line := range starts {
		l := uint32(line)
		if got := r.LineStartOffset(l); got != starts[line] {
			t.Errorf("LineStartOffset(%d) = %d, want %d", line, got, starts[line])
		}
		if got := r.LineEndOffset(l); got != ends[line] {
			t.Errorf("LineEndOffset(%d) = %d, want %d", line, got, ends[line])
		}
		if got := r.LineText(l); got != texts[line] {
			t.Errorf("LineText(%d) = %q, want %q", line, got, texts[line])
		}
	}
	if got := r.LineStartOffset(10); got != r.Len() {
		t.Errorf("LineStartOffset past end = %d, want %d", got, r.Len())
	}
	if got := r.ByteToLine(13); got != 2 {
		t.Errorf("ByteToLine(13) = %d, want 2", got)
	}
	if got := r.ByteToLine(12); got != 1 {
		t.Errorf("ByteToLine(12) = %d, want 1", got)
	}
}

func TestLineStartAcrossChunks(t *testing.T) {
	var sb strings.Builder
	var want []ByteOffset
	for i := 0; i < 800; i++ {
		want = append(want, ByteOffset(sb.Len()))
		sb.WriteString(strings.Repeat("x", i%37))
		sb.WriteByte('\n')
	}
	r := FromString(sb.String())
	for line, off := range want {
		if got := r.LineStartOffset(uint32(line)); got != off {
			t.Fatalf("LineStartOffset(%d) = %d, want %d", line, got, off)
		}
	}
}

func TestPoints(t *testing.T) {
	r := FromString("ab\ncd\n")
	tests := []struct {
		offset ByteOffset
		point  Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{5, Point{1, 2}},
		{6, Point{2, 0}},
	}
	for _, tt := range tests {
		if got := r.OffsetToPoint(tt.offset); got != tt.point {
			t.Errorf("OffsetToPoint(%d) = %+v, want %+v", tt.offset, got, tt.point)
		}
		if got := r.PointToOffset(tt.point); got != tt.offset {
			t.Errorf("PointToOffset(%+v) = %d, want %d", tt.point, got, tt.offset)
		}
	}
	if got := r.PointToOffset(Point{Line: 0, Column: 40}); got != 2 {
		t.Errorf("PointToOffset clamps column: got %d, want 2", got)
	}
}

func TestByteAt(t *testing.T) {
	text := strings.Repeat("0123456789", 60)
	r := FromString(text)
	for _, i := range []int{0, 9, 255, 256, 599} {
		b, ok := r.ByteAt(ByteOffset(i))
		if !ok || b != text[i] {
			t.Errorf("ByteAt(%d) = %q, %v", i, b, ok)
		}
	}
	if _, ok := r.ByteAt(600); ok {
		t.Error("ByteAt past end should fail")
	}
}

func TestIterators(t *testing.T) {
	text := strings.Repeat("αβ\n", 200)
	r := FromString(text)

	var sb strings.Builder
	chunks := r.Chunks()
	for chunks.Next() {
		if chunks.Offset() != ByteOffset(sb.Len()) {
			t.Fatalf("chunk offset %d, want %d", chunks.Offset(), sb.Len())
		}
		sb.WriteString(chunks.Chunk().String())
	}
	if sb.String() != text {
		t.Fatal("chunk iteration lost text")
	}

	var runes []rune
	ri := r.Runes()
	for ri.Next() {
		runes = append(runes, ri.Rune())
	}
	if string(runes) != text {
		t.Error("rune iteration lost text")
	}

	from := r.RunesFrom(r.CharToByte(4))
	if !from.Next() || from.Rune() != 'β' || from.Offset() != r.CharToByte(4) {
		t.Errorf("RunesFrom gave %q at %d", from.Rune(), from.Offset())
	}

	rev := FromString("aé🌍").ReverseRunes()
	var back []rune
	for rev.Next() {
		back = append(back, rev.Rune())
	}
	if string(back) != "🌍éa" {
		t.Errorf("reverse runes = %q", string(back))
	}
}

func TestSeekingIterators(t *testing.T) {
	text := strings.Repeat("fn(α, \"🌍\")\n", 3000)
	r := FromString(text)
	runes := []rune(text)
	offsets := make([]ByteOffset, 0, len(runes)+1)
	var off ByteOffset
	for _, c := range runes {
		offsets = append(offsets, off)
		off += ByteOffset(utf8.RuneLen(c))
	}
	offsets = append(offsets, off)

	for i := 0; i <= len(runes); i += 7 {
		chunks := r.ChunksFrom(offsets[i])
		if i == len(runes) {
			if chunks.Next() {
				t.Fatalf("ChunksFrom(end) yielded a chunk at %d", chunks.Offset())
			}
			continue
		}
		if !chunks.Next() {
			t.Fatalf("ChunksFrom(%d) yielded nothing", offsets[i])
		}
		start := chunks.Offset()
		if start > offsets[i] || start+ByteOffset(chunks.Chunk().Len()) <= offsets[i] {
			t.Fatalf("ChunksFrom(%d) gave chunk [%d,%d)", offsets[i], start, start+ByteOffset(chunks.Chunk().Len()))
		}
		var sb strings.Builder
		sb.WriteString(chunks.Chunk().String())
		for chunks.Next() {
			sb.WriteString(chunks.Chunk().String())
		}
		if sb.String() != text[start:] {
			t.Fatalf("ChunksFrom(%d) lost text after the first chunk", offsets[i])
		}
	}

	for _, i := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 4095, len(runes) / 2, len(runes) - 1} {
		fwd := r.RunesFrom(offsets[i])
		for j := i; j < i+40 && j < len(runes); j++ {
			if !fwd.Next() || fwd.Rune() != runes[j] || fwd.Offset() != offsets[j] {
				t.Fatalf("RunesFrom(%d) step %d gave %q at %d, want %q at %d", offsets[i], j-i, fwd.Rune(), fwd.Offset(), runes[j], offsets[j])
			}
		}

		back := r.ReverseRunesFrom(offsets[i])
		for j := i - 1; j >= 0 && j > i-40; j-- {
			if !back.Next() || back.Rune() != runes[j] || back.Offset() != offsets[j] {
				t.Fatalf("ReverseRunesFrom(%d) gave %q at %d, want %q at %d", offsets[i], back.Rune(), back.Offset(), runes[j], offsets[j])
			}
		}
	}

	var n int
	back := r.ReverseRunesFrom(r.Len())
	for back.Next() {
		n++
	}
	if n != len(runes) {
		t.Errorf("reverse iteration visited %d runes, want %d", n, len(runes))
	}
	if r.RunesFrom(r.Len()).Next() {
		t.Error("RunesFrom(end) should be empty")
	}
	if FromString("").ReverseRunes().Next() {
		t.Error("reverse iteration of an empty rope should be empty")
	}
}

func TestBuilderKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("€", 1000)
	var b Builder
	// Write one byte at a time so flushes land mid-sequence.
	for i := 0; i < len(text); i++ {
		b.Write([]byte{text[i]})
	}
	r := b.Build()
	if r.String() != text {
		t.Fatal("builder lost text")
	}
	if r.CharLen() != 1000 {
		t.Errorf("CharLen() = %d, want 1000", r.CharLen())
	}
}

func TestFromReader(t *testing.T) {
	text := strings.Repeat("reader ✓\n", 10000)
	r, err := FromReader(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Equals(FromString(text)) {
		t.Error("FromReader differs from FromString")
	}
}

func TestEquals(t *testing.T) {
	a := FromString("hello world")
	b := FromString("hello").Concat(FromString(" world"))
	if !a.Equals(b) {
		t.Error("equal content with different structure should be Equal")
	}
	if a.Equals(FromString("hello World")) {
		t.Error("different content should not be Equal")
	}
	if !FromLines([]string{"a", "b"}).Equals(Join([]Rope{FromString("a"), FromString("b")}, "\n")) {
		t.Error("FromLines and Join disagree")
	}
}

func TestEditProperty(t *testing.T) {
	f := func(s, ins string, at uint16, del uint8) bool {
		if !utf8.ValidString(s) || !utf8.ValidString(ins) {
			return true
		}
		runes := []rune(s)
		c := int(at) % (len(runes) + 1)
		d := min(c+int(del)%4, len(runes))

		r := FromString(s)
		start, end := r.CharToByte(uint64(c)), r.CharToByte(uint64(d))
		got := r.Replace(start, end, ins)
		want := string(runes[:c]) + ins + string(runes[d:])
		return got.String() == want && got.Summary() == ComputeSummary(want)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		input string
		want  TextSummary
	}{
		{"", TextSummary{Flags: FlagASCII}},
		{"hi\n", TextSummary{Bytes: 3, Chars: 3, UTF16Units: 3, Lines: 1, Flags: FlagASCII | FlagHasNewlines}},
		{"世界", TextSummary{Bytes: 6, Chars: 2, UTF16Units: 2}},
		{"🌍", TextSummary{Bytes: 4, Chars: 1, UTF16Units: 2}},
	}
	for _, tt := range tests {
		if got := ComputeSummary(tt.input); got != tt.want {
			t.Errorf("ComputeSummary(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}

	sum := ComputeSummary("ab\n").Add(ComputeSummary("ü"))
	want := TextSummary{Bytes: 5, Chars: 4, UTF16Units: 4, Lines: 1, Flags: FlagHasNewlines}
	if sum != want {
		t.Errorf("Add = %+v, want %+v", sum, want)
	}
}
