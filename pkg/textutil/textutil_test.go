package textutil

import (
	"reflect"
	"testing"
)

func TestLeftAndRight(t *testing.T) {
	tests := []struct {
		name          string
		fn            func(string, string, bool) string
		text          string
		search        string
		caseSensitive bool
		want          string
	}{
		{"LeftOf match", LeftOf, "good 1.2.3.4", " ", true, "good"},
		{"LeftOf no match", LeftOf, "nochg", " ", true, "nochg"},
		{"LeftOf first of many", LeftOf, "a.b.c", ".", true, "a"},
		{"LeftOf case insensitive", LeftOf, "HostName=x", "name", false, "Host"},
		{"LeftOf case sensitive miss", LeftOf, "HostName=x", "name", true, "HostName=x"},
		{"LeftOfLast match", LeftOfLast, "a.b.c", ".", true, "a.b"},
		{"LeftOfLast no match", LeftOfLast, "abc", ".", true, ""},
		{"RightOf match", RightOf, "good 1.2.3.4", " ", true, "1.2.3.4"},
		{"RightOf no match", RightOf, "nochg", " ", true, ""},
		{"RightOf case insensitive", RightOf, "KEY=value", "key=", false, "value"},
		{"RightOfLast match", RightOfLast, "a.b.c", ".", true, "c"},
		{"RightOfLast no match", RightOfLast, "abc", ".", true, "abc"},
		{"RightOfLast case insensitive", RightOfLast, "xAbyaBz", "ab", false, "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(tt.text, tt.search, tt.caseSensitive)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFoldMatchMultibyte(t *testing.T) {
	if got := RightOf("straße ÄRGER ende", "ärger ", false); got != "ende" {
		t.Errorf("RightOf() = %q, want %q", got, "ende")
	}
	if got := LeftOf("straße ÄRGER ende", "ärger", false); got != "straße " {
		t.Errorf("LeftOf() = %q, want %q", got, "straße ")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		delimiter string
		omit      string
		addEmpty  bool
		want      []string
	}{
		{
			name:      "keeps empty entries",
			text:      "a\n\nb",
			delimiter: "\n",
			addEmpty:  true,
			want:      []string{"a", "", "b"},
		},
		{
			name:      "drops empty entries",
			text:      "a\n\nb\n",
			delimiter: "\n",
			want:      []string{"a", "b"},
		},
		{
			name:      "trims omitted characters",
			text:      "good 1.2.3.4\r\nnochg 1.2.3.4\r\n",
			delimiter: "\n",
			omit:      "\r ",
			want:      []string{"good 1.2.3.4", "nochg 1.2.3.4"},
		},
		{
			name:      "trimming can produce empty entries",
			text:      "a, ,b",
			delimiter: ",",
			omit:      " ",
			want:      []string{"a", "b"},
		},
		{
			name:      "multi character delimiter",
			text:      "a::b::c",
			delimiter: "::",
			addEmpty:  true,
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "empty delimiter returns whole text",
			text:      "abc",
			delimiter: "",
			addEmpty:  true,
			want:      []string{"abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.delimiter, tt.omit, tt.addEmpty)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}
