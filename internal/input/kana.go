package input

import "github.com/verte-zerg/flicktype/internal/layout"

var dakuten = map[rune]rune{
	'か': 'が', 'き': 'ぎ', 'く': 'ぐ', 'け': 'げ', 'こ': 'ご',
	'さ': 'ざ', 'し': 'じ', 'す': 'ず', 'せ': 'ぜ', 'そ': 'ぞ',
	'た': 'だ', 'ち': 'ぢ', 'つ': 'づ', 'て': 'で', 'と': 'ど',
	'は': 'ば', 'ひ': 'び', 'ふ': 'ぶ', 'へ': 'べ', 'ほ': 'ぼ',
	'う': 'ゔ',
}

var handakuten = map[rune]rune{
	'は': 'ぱ', 'ひ': 'ぴ', 'ふ': 'ぷ', 'へ': 'ぺ', 'ほ': 'ぽ',
}

var small = map[rune]rune{
	'あ': 'ぁ', 'い': 'ぃ', 'う': 'ぅ', 'え': 'ぇ', 'お': 'ぉ',
	'つ': 'っ', 'や': 'ゃ', 'ゆ': 'ゅ', 'よ': 'ょ', 'わ': 'ゎ',
}

// Modify returns r with the kana modifier applied.
func Modify(r rune, m layout.Modifier) (rune, bool) {
	var table map[rune]rune
	switch m {
	case layout.ModDakuten:
		table = dakuten
	case layout.ModHandakuten:
		table = handakuten
	case layout.ModSmall:
		table = small
	default:
		return r, false
	}
	out, ok := table[r]
	return out, ok
}

// Decompose finds the base rune and modifier that produce r, so practice
// targets containing modified kana can be guided. It returns ModNone when r
// is not a modified form.
func Decompose(r rune) (rune, layout.Modifier) {
	for _, t := range []struct {
		m     layout.Modifier
		table map[rune]rune
	}{
		{layout.ModDakuten, dakuten},
		{layout.ModHandakuten, handakuten},
		{layout.ModSmall, small},
	} {
		for base, mod := range t.table {
			if mod == r {
				return base, t.m
			}
		}
	}
	return r, layout.ModNone
}
