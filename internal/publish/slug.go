package publish

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

// cyrillic maps Ukrainian and Russian letters to the Latin spelling used by the
// page slugs already published on the site.
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'ґ': "g", 'д': "d", 'е': "e", 'є': "ie",
	'ж': "zh", 'з': "z", 'и': "i", 'і': "i", 'ї': "yi", 'й': "i", 'к': "k", 'л': "l",
	'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch", 'ь': "'", 'ю': "iu",
	'я': "ia", 'ъ': "'", 'ы': "y", 'э': "e", 'ё': "io",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts text into a lowercase ASCII slug: Cyrillic is transliterated,
// diacritics are dropped and every other run of characters becomes one hyphen.
func Slugify(s string) string {
	var latin strings.Builder
	for _, r := range s {
		lower := unicode.ToLower(r)
		if t, ok := cyrillic[lower]; ok {
			latin.WriteString(t)
			continue
		}
		latin.WriteRune(lower)
	}

	plain, _, err := transform.String(stripMarks, latin.String())
	if err != nil {
		plain = latin.String()
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// DisciplineTitle is the remote page title of a discipline, "CODE: Title".
func DisciplineTitle(d catalog.Discipline) string {
	return d.Code + ": " + d.Title
}

// DisciplineSlug is the remote page slug of a discipline.
func DisciplineSlug(d catalog.Discipline) string {
	return Slugify(DisciplineTitle(d))
}

// IndexTitle is the remote page title of the program index.
func IndexTitle(p catalog.Program) string {
	return "Освітні компоненти: " + p.Degree + " " + p.Year
}

// IndexSlug is the remote page slug of the program index.
func IndexSlug(p catalog.Program) string {
	return Slugify("op_" + p.Degree + "-" + p.Year)
}
