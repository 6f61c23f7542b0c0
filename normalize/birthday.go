package normalize

import (
	"regexp"
	"strings"

	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/types"
)

const (
	BirthdayChild = "birthday-child"
	BirthdayAdult = "birthday-adult"
)

// adultAge is the first age treated as an adult birthday.
const adultAge = 18

var (
	birthdayTerm = regexp.MustCompile(`\b(?:birthday|bday|b-day|b'day)s?\b`)

	ageCues = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,3})\s*-?\s*(?:years?|yrs?)\s*-?\s*old\b`),
		regexp.MustCompile(`\b(\d{1,3})\s*(?:yo|y/o)\b`),
		regexp.MustCompile(`\bturn(?:s|ing|ed)?\s+(\d{1,3})\b`),
		regexp.MustCompile(`\baged?\s+(\d{1,3})\b`),
		regexp.MustCompile(`\b(\d{1,3})(?:st|nd|rd|th)\s+(?:birthday|bday|b-day)`),
	}

	ordinalAges = map[string]int{
		"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6,
		"seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11,
		"twelfth": 12, "thirteenth": 13, "fourteenth": 14, "fifteenth": 15,
		"sixteenth": 16, "seventeenth": 17, "eighteenth": 18, "twenty-first": 21,
		"twentieth": 20, "thirtieth": 30, "fortieth": 40, "fiftieth": 50,
		"sixtieth": 60, "seventieth": 70, "eightieth": 80, "ninetieth": 90,
		"hundredth": 100,
	}
	ordinalBirthday = regexp.MustCompile(`\b([a-z]+(?:-[a-z]+)?)\s+(?:birthday|bday|b-day)`)

	childQualifiers = []string{
		"kid", "kids", "kiddo", "child", "children", "childs", "toddler", "baby",
		"son", "daughter", "little one", "little boy", "little girl", "teen",
		"teenager", "tween", "grandson", "granddaughter", "preschool",
		"sweet sixteen", "sweet 16", "princess party", "bouncy castle",
	}
	adultQualifiers = []string{
		"adult", "adults", "grown up", "grown-up", "my wife", "my husband",
		"my partner", "my boyfriend", "my girlfriend", "my mom", "my mother",
		"my dad", "my father", "coworker", "colleague", "boss", "grandma",
		"grandpa", "grandmother", "grandfather", "milestone", "cocktails",
		"over the hill",
	}
)

func mentionsBirthday(s string) bool {
	return birthdayTerm.MatchString(strings.ToLower(s))
}

// birthdayCue inspects one piece of text for an age or an explicit child or
// adult qualifier. An explicit age beats qualifiers.
func birthdayCue(text string) (string, bool) {
	s := prepareNumeric(text)
	for _, re := range ageCues {
		if m := re.FindStringSubmatch(s); m != nil {
			if age, ok := atoi(m[1]); ok {
				return variantForAge(age), true
			}
		}
	}
	for _, m := range ordinalBirthday.FindAllStringSubmatch(s, -1) {
		if age, ok := ordinalAges[m[1]]; ok {
			return variantForAge(age), true
		}
	}
	folded := "-" + catalog.Fold(text) + "-"
	for _, q := range childQualifiers {
		if strings.Contains(folded, "-"+catalog.Fold(q)+"-") {
			return BirthdayChild, true
		}
	}
	for _, q := range adultQualifiers {
		if strings.Contains(folded, "-"+catalog.Fold(q)+"-") {
			return BirthdayAdult, true
		}
	}
	return "", false
}

func variantForAge(age int) string {
	if age < adultAge {
		return BirthdayChild
	}
	return BirthdayAdult
}

// resolveBirthday picks the birthday variant for a generic birthday mention.
// Sources are consulted in order: the raw value, the latest message, then the
// user's earlier turns from newest to oldest. Without any cue the configured
// default applies, so an ambiguous mention never leaves event_type unset.
func (n *Normalizer) resolveBirthday(raw string, ctx Context) string {
	if v, ok := birthdayCue(raw); ok {
		return v
	}
	if v, ok := birthdayCue(ctx.Message); ok {
		return v
	}
	for i := len(ctx.History) - 1; i >= 0; i-- {
		turn := ctx.History[i]
		if turn.Role != types.RoleUser {
			continue
		}
		if v, ok := birthdayCue(turn.Content); ok {
			return v
		}
	}
	return n.birthdayDefault
}
