package bible

import "strings"

// Book is one book of the 66-book Protestant canon.
type Book struct {
	Number  int
	Name    string
	Aliases []string
}

// Key is the lower-case name used as VerseRecord.Book.
func (b Book) Key() string {
	return Key(b.Name)
}

// Books is ordered by canonical number (Genesis = 1).
var Books = []Book{
	{1, "Genesis", []string{"gen", "ge", "gn"}},
	{2, "Exodus", []string{"exod", "exo", "ex"}},
	{3, "Leviticus", []string{"lev", "le", "lv"}},
	{4, "Numbers", []string{"num", "nu", "nm", "nb"}},
	{5, "Deuteronomy", []string{"deut", "de", "dt"}},
	{6, "Joshua", []string{"josh", "jos", "jsh"}},
	{7, "Judges", []string{"judg", "jdg", "jg", "jdgs"}},
	{8, "Ruth", []string{"rth", "ru"}},
	{9, "1 Samuel", []string{"1sam", "1sa", "1sm", "isam"}},
	{10, "2 Samuel", []string{"2sam", "2sa", "2sm", "iisam"}},
	{11, "1 Kings", []string{"1kgs", "1ki", "1kin", "1k"}},
	{12, "2 Kings", []string{"2kgs", "2ki", "2kin", "2k"}},
	{13, "1 Chronicles", []string{"1chron", "1chr", "1ch"}},
	{14, "2 Chronicles", []string{"2chron", "2chr", "2ch"}},
	{15, "Ezra", []string{"ezr", "ez"}},
	{16, "Nehemiah", []string{"neh", "ne"}},
	{17, "Esther", []string{"esth", "est", "es"}},
	{18, "Job", []string{"jb"}},
	{19, "Psalms", []string{"ps", "psa", "psalm", "pslm", "psm", "pss"}},
	{20, "Proverbs", []string{"prov", "pro", "prv", "pr"}},
	{21, "Ecclesiastes", []string{"eccles", "eccl", "ecc", "ec", "qoh"}},
	{22, "Song of Solomon", []string{"song", "sos", "so", "songofsongs", "canticles", "song of songs"}},
	{23, "Isaiah", []string{"isa", "is"}},
	{24, "Jeremiah", []string{"jer", "je", "jr"}},
	{25, "Lamentations", []string{"lam", "la"}},
	{26, "Ezekiel", []string{"ezek", "eze", "ezk"}},
	{27, "Daniel", []string{"dan", "da", "dn"}},
	{28, "Hosea", []string{"hos", "ho"}},
	{29, "Joel", []string{"jl"}},
	{30, "Amos", []string{"am"}},
	{31, "Obadiah", []string{"obad", "ob"}},
	{32, "Jonah", []string{"jnh", "jon"}},
	{33, "Micah", []string{"mic", "mc"}},
	{34, "Nahum", []string{"nah", "na"}},
	{35, "Habakkuk", []string{"hab", "hb"}},
	{36, "Zephaniah", []string{"zeph", "zep", "zp"}},
	{37, "Haggai", []string{"hag", "hg"}},
	{38, "Zechariah", []string{"zech", "zec", "zc"}},
	{39, "Malachi", []string{"mal", "ml"}},
	{40, "Matthew", []string{"matt", "mat", "mt"}},
	{41, "Mark", []string{"mrk", "mar", "mk", "mr"}},
	{42, "Luke", []string{"luk", "lk"}},
	{43, "John", []string{"joh", "jhn", "jn"}},
	{44, "Acts", []string{"act", "ac"}},
	{45, "Romans", []string{"rom", "ro", "rm"}},
	{46, "1 Corinthians", []string{"1cor", "1co"}},
	{47, "2 Corinthians", []string{"2cor", "2co"}},
	{48, "Galatians", []string{"gal", "ga"}},
	{49, "Ephesians", []string{"eph", "ephes"}},
	{50, "Philippians", []string{"phil", "php", "pp"}},
	{51, "Colossians", []string{"col", "co"}},
	{52, "1 Thessalonians", []string{"1thess", "1thes", "1th"}},
	{53, "2 Thessalonians", []string{"2thess", "2thes", "2th"}},
	{54, "1 Timothy", []string{"1tim", "1ti"}},
	{55, "2 Timothy", []string{"2tim", "2ti"}},
	{56, "Titus", []string{"tit", "ti"}},
	{57, "Philemon", []string{"philem", "phm", "pm"}},
	{58, "Hebrews", []string{"heb"}},
	{59, "James", []string{"jas", "jm"}},
	{60, "1 Peter", []string{"1pet", "1pe", "1pt", "1p"}},
	{61, "2 Peter", []string{"2pet", "2pe", "2pt", "2p"}},
	{62, "1 John", []string{"1john", "1jhn", "1jn", "1j"}},
	{63, "2 John", []string{"2john", "2jhn", "2jn", "2j"}},
	{64, "3 John", []string{"3john", "3jhn", "3jn", "3j"}},
	{65, "Jude", []string{"jud", "jd"}},
	{66, "Revelation", []string{"rev", "re", "revelations", "the revelation"}},
}

var (
	byKey   = map[string]Book{}
	byAlias = map[string]Book{}
)

func init() {
	for _, b := range Books {
		byKey[b.Key()] = b
		byAlias[compact(b.Name)] = b
		for _, a := range b.Aliases {
			byAlias[compact(a)] = b
		}
	}
}

// Key lower-cases a book name and collapses whitespace.
func Key(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// compact strips spaces and dots so "1 Cor." and "1cor" compare equal.
func compact(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

// BookByNumber returns the book with the given canonical number.
func BookByNumber(n int) (Book, bool) {
	if n < 1 || n > len(Books) {
		return Book{}, false
	}
	return Books[n-1], true
}

// BookByKey returns the book whose Key equals key.
func BookByKey(key string) (Book, bool) {
	b, ok := byKey[Key(key)]
	return b, ok
}

// LookupBook resolves a free-text book token: exact name or alias first,
// then the first canonical book whose name starts with the token.
func LookupBook(token string) (Book, bool) {
	c := compact(token)
	if c == "" {
		return Book{}, false
	}
	if b, ok := byAlias[c]; ok {
		return b, true
	}
	if len(c) < 2 {
		return Book{}, false
	}
	for _, b := range Books {
		if strings.HasPrefix(compact(b.Name), c) {
			return b, true
		}
	}
	return Book{}, false
}

// DisplayName maps a book key back to its canonical title. Unknown keys are
// title-cased word by word.
func DisplayName(key string) string {
	if b, ok := byKey[Key(key)]; ok {
		return b.Name
	}
	words := strings.Fields(key)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
