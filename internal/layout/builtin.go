package layout

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in layout names.
const (
	NameAlpha     = "alpha"
	NameFrequency = "frequency"
	NameKana      = "kana"
)

// DefaultName is the layout used when none is configured.
const DefaultName = NameAlpha

var builtins = map[string][]Grid{
	NameAlpha: {{
		{"1", "A", "B", "C", "D", "E"},
		{"2", "F", "G", "H", "I", "J"},
		{"3", "K", "L", "M", "N", "O"},
		{"4", "P", "Q", "R", "S", "T"},
		{"5", "U", "V", "W", "X", "Y"},
		{"6", "7", "8", "9", "0", "Z"},
	}},
	// Most frequent English letters sit on the first column of each row.
	NameFrequency: {{
		{"E", "A", "R", "M", "F", "V"},
		{"T", "O", "L", "C", "Y", "K"},
		{"N", "S", "D", "W", "P", "Q"},
		{"I", "H", "U", "G", "B", "J"},
		{"Z", "1", "2", "3", "4", "5"},
		{"X", "6", "7", "8", "9", "0"},
	}},
	NameKana: {
		{
			{"あ", "い", "う", "え", "お", "ー"},
			{"さ", "し", "す", "せ", "そ", "・"},
			{"な", "に", "ぬ", "ね", "の", "、"},
			{"ま", "み", "む", "め", "も", "。"},
			{"ら", "り", "る", "れ", "ろ", "？"},
			{"", "", "", "", "", ""},
		},
		{
			{"か", "き", "く", "け", "こ", "っ"},
			{"た", "ち", "つ", "て", "と", "！"},
			{"は", "ひ", "ふ", "へ", "ほ", "ん"},
			{"や", "「", "ゆ", "」", "よ", "…"},
			{"わ", "を", "（", "）", "～", ""},
			{"[濁]", "[半]", "[小]", "゛", "゜", "ゃ"},
		},
	},
}

// Builtin returns a built-in layout by name.
func Builtin(name string) (*Layout, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultName
	}
	grids, ok := builtins[key]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return New(key, grids...)
}

// BuiltinNames lists the built-in layouts in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
