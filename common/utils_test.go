package common

import (
	"bytes"
	"testing"
)

func TestTrimZeros(t *testing.T) {
	cases := []struct {
		in, want []byte
	}{
		{[]byte("abc\x00\x00\x00"), []byte("abc")},
		{[]byte("abc"), []byte("abc")},
		{[]byte{0, 0}, []byte{}},
		{[]byte("a\x00b\x00"), []byte("a\x00b")},
	}
	for _, c := range cases {
		if got := TrimZeros(c.in); !bytes.Equal(got, c.want) {
			t.Errorf("TrimZeros(%q) = %q, expected %q", c.in, got, c.want)
		}
	}
}

type copyTarget struct {
	Name   string
	Floors []int
	hidden []int
}

func TestDeepCopyDetaches(t *testing.T) {
	src := copyTarget{Name: "a", Floors: []int{1, 2}, hidden: []int{3}}
	dst, err := DeepCopy(src)
	if err != nil {
		t.Fatalf("DeepCopy error: %v", err)
	}
	if dst.Name != "a" || len(dst.Floors) != 2 || len(dst.hidden) != 1 || dst.hidden[0] != 3 {
		t.Fatalf("DeepCopy = %+v, expected a full copy of %+v", dst, src)
	}

	dst.Floors[0] = 9
	dst.hidden[0] = 9
	if src.Floors[0] != 1 || src.hidden[0] != 3 {
		t.Errorf("mutating the copy changed the source: %+v", src)
	}
}
