package normalize

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"thirty": 30, "forty": 40, "fifty": 50, "sixty": 60, "seventy": 70,
	"eighty": 80, "ninety": 90,
}

func isNumberWord(w string) bool {
	if _, ok := numberWords[w]; ok {
		return true
	}
	return w == "hundred" || w == "thousand" || w == "dozen"
}

// wordsToDigits rewrites spelled-out numbers ("twenty-five", "two hundred")
// as digits. Input is expected in lower case.
func wordsToDigits(s string) string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	cur, total, active := 0, 0, false
	flush := func() {
		if active {
			out = append(out, strconv.Itoa(total+cur))
		}
		cur, total, active = 0, 0, false
	}
	for _, f := range fields {
		word := strings.TrimRight(f, ".,!?;:")
		parts := strings.Split(word, "-")
		numeric := word != ""
		for _, p := range parts {
			if !isNumberWord(p) {
				numeric = false
				break
			}
		}
		// "15 thousand" keeps its word so the money suffix survives.
		if numeric && !active && parts[0] == "thousand" {
			numeric = false
		}
		if !numeric {
			flush()
			out = append(out, f)
			continue
		}
		for _, p := range parts {
			switch p {
			case "hundred":
				if cur == 0 {
					cur = 1
				}
				cur *= 100
			case "dozen":
				if cur == 0 {
					cur = 1
				}
				cur *= 12
			case "thousand":
				if cur == 0 {
					cur = 1
				}
				total += cur * 1000
				cur = 0
			default:
				cur += numberWords[p]
			}
		}
		active = true
		if word != f {
			flush()
		}
	}
	flush()
	return strings.Join(out, " ")
}

var thousandsSep = regexp.MustCompile(`(\d),(\d{3})`)

// prepareNumeric lowercases s, spells numbers as digits and drops thousands
// separators.
func prepareNumeric(s string) string {
	s = wordsToDigits(strings.ToLower(s))
	for thousandsSep.MatchString(s) {
		s = thousandsSep.ReplaceAllString(s, "$1$2")
	}
	return s
}

var (
	countRange   = regexp.MustCompile(`(\d+)\s*(?:-|–|to)\s*(\d+)`)
	countBetween = regexp.MustCompile(`between\s+(\d+)\s+and\s+(\d+)`)
	countPlus    = regexp.MustCompile(`(\d+)\s*\+`)
	countPeople  = regexp.MustCompile(`(\d+)\s*(?:people|persons|guests|attendees|heads|pax|total|in total)\b`)
	countTotal   = regexp.MustCompile(`total(?:\s+of)?\s+(\d+)`)
	anyNumber    = regexp.MustCompile(`\d+(?:\.\d+)?`)

	integralDecimal = regexp.MustCompile(`(\d+)\.0+\b`)
	fractionalCount = regexp.MustCompile(`\d+\.\d+\s*(?:people|persons|guests|attendees|heads|pax)\b`)
)

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// parseCount reads a head count out of free text. Ranges resolve to the floor
// of their midpoint and open ranges ("250+") to their lower bound. An explicit
// "N people" phrase beats any other number; the last such phrase wins so that
// "20 kids and their parents, so 50 people total" reads as 50. Fractional
// head counts ("2.5 guests") are rejected rather than rounded.
func parseCount(text string) (int, bool) {
	s := integralDecimal.ReplaceAllString(prepareNumeric(text), "$1")
	if fractionalCount.MatchString(s) {
		return 0, false
	}
	if m := countBetween.FindStringSubmatch(s); m != nil {
		if lo, hi, ok := bounds(m); ok {
			return (lo + hi) / 2, true
		}
	}
	if m := countPeople.FindAllStringSubmatch(s, -1); len(m) > 0 {
		last := m[len(m)-1]
		if n, ok := atoi(last[1]); ok && !rangeEndsAt(s, last) {
			return n, true
		}
	}
	if m := countTotal.FindStringSubmatch(s); m != nil {
		return atoi(m[1])
	}
	if m := countRange.FindStringSubmatch(s); m != nil {
		if lo, hi, ok := bounds(m); ok {
			return (lo + hi) / 2, true
		}
	}
	if m := countPlus.FindStringSubmatch(s); m != nil {
		return atoi(m[1])
	}
	best, found := 0, false
	for _, raw := range anyNumber.FindAllString(s, -1) {
		n, ok := atoi(raw)
		if !ok {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}

func bounds(m []string) (int, int, bool) {
	lo, ok1 := atoi(m[1])
	hi, ok2 := atoi(m[2])
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// rangeEndsAt reports whether the "N people" match is the upper end of a
// textual range such as "25-50 people".
func rangeEndsAt(s string, match []string) bool {
	idx := strings.LastIndex(s, match[0])
	if idx <= 0 {
		return false
	}
	prefix := strings.TrimRight(s[:idx], " ")
	return strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, "–") || strings.HasSuffix(prefix, " to")
}

const moneySuffix = `(k|thousand|grand|m|million)?`

var (
	moneyAmount = regexp.MustCompile(`(\$)?\s*(\d+(?:\.\d+)?)\s*` + moneySuffix + `\b`)
	moneyBelow  = regexp.MustCompile(`\b(?:under|below|less than|up to|within|max(?:imum)?|at most|no more than|cap(?:ped)? at)\s*\$?\s*$`)
	moneyUnit   = regexp.MustCompile(`^\s*(?:dollars?|usd|bucks)\b`)

	moneyRange = regexp.MustCompile(`(\$)?\s*(\d+(?:\.\d+)?)\s*` + moneySuffix +
		`\s*(?:-|–|\bto\b)\s*(\$)?\s*(\d+(?:\.\d+)?)\s*` + moneySuffix + `\b`)

	moneyBetween = regexp.MustCompile(`between\s+(\$)?\s*(\d+(?:\.\d+)?)\s*` + moneySuffix +
		`\s+and\s+(\$)?\s*(\d+(?:\.\d+)?)\s*` + moneySuffix + `\b`)

	// Numbers followed by these count people or tell the time, never money.
	notMoney = regexp.MustCompile(`^(?:\s*(?:people|persons?|guests?|attendees|heads|pax|kids|children|adults?|years?|yrs?|yo|hours?|hrs?|minutes?|mins?|days?|weeks?|months?|pm|am|p\.m|a\.m|o'clock|percent)\b|\s*%|:\d)`)
)

func moneyValue(num, suffix string) (int, bool) {
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "k", "thousand", "grand":
		f *= 1000
	case "m", "million":
		f *= 1_000_000
	}
	return int(math.Round(f)), true
}

// moneyReading is one budget amount found in the text.
type moneyReading struct {
	value  int
	marked bool
}

// parseBudget reduces a budget phrase to one representative dollar amount
// that can be bucketed. Two amounts joined by a range connector ("5-15k",
// "$3000 to $4000", "between 5k and 10k") resolve to their midpoint; any
// other numbers are read on their own. Numbers followed by a people or time
// word are skipped, and an amount marked as money ("$", "k", "dollars") beats
// bare numbers. A single amount preceded by an upper-bound qualifier ("under
// $2000") resolves just below it; lower bounds ("over 50k", "50k+") resolve
// to the amount itself since buckets include their minimum.
func parseBudget(text string) (int, bool) {
	s := prepareNumeric(text)
	taken := make([]bool, len(s)+1)
	found := make(map[int]moneyReading)

	for _, re := range []*regexp.Regexp{moneyBetween, moneyRange} {
		for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
			if overlaps(taken, loc[0], loc[1]) {
				continue
			}
			take(taken, loc[0], loc[1])
			if notMoney.MatchString(s[loc[1]:]) {
				continue
			}
			loSuffix, hiSuffix := submatch(s, loc, 3), submatch(s, loc, 6)
			lo, ok1 := moneyValue(submatch(s, loc, 2), loSuffix)
			hi, ok2 := moneyValue(submatch(s, loc, 5), hiSuffix)
			if !ok1 || !ok2 {
				continue
			}
			// "5-15k" carries the suffix on the upper bound only.
			if loSuffix == "" && hiSuffix != "" && lo < hi/100 {
				lo, _ = moneyValue(submatch(s, loc, 2), hiSuffix)
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			found[loc[0]] = moneyReading{
				value:  (lo + hi) / 2,
				marked: submatch(s, loc, 1) != "" || submatch(s, loc, 4) != "" ||
					loSuffix != "" || hiSuffix != "" || moneyUnit.MatchString(s[loc[1]:]),
			}
		}
	}

	for _, loc := range moneyAmount.FindAllStringSubmatchIndex(s, -1) {
		if overlaps(taken, loc[0], loc[1]) || notMoney.MatchString(s[loc[1]:]) {
			continue
		}
		suffix := submatch(s, loc, 3)
		v, ok := moneyValue(submatch(s, loc, 2), suffix)
		if !ok {
			continue
		}
		if moneyBelow.MatchString(s[:loc[0]]) {
			v--
		}
		found[loc[0]] = moneyReading{
			value:  v,
			marked: submatch(s, loc, 1) != "" || suffix != "" || moneyUnit.MatchString(s[loc[1]:]),
		}
	}
	return pickAmount(found)
}

// pickAmount returns the first marked amount in text order, or the largest
// bare number when nothing is marked.
func pickAmount(found map[int]moneyReading) (int, bool) {
	if len(found) == 0 {
		return 0, false
	}
	starts := make([]int, 0, len(found))
	for start := range found {
		starts = append(starts, start)
	}
	slices.Sort(starts)
	best, ok := 0, false
	for _, start := range starts {
		a := found[start]
		if a.marked {
			return a.value, true
		}
		if !ok || a.value > best {
			best, ok = a.value, true
		}
	}
	return best, ok
}

func overlaps(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

func take(taken []bool, start, end int) {
	for i := start; i < end; i++ {
		taken[i] = true
	}
}

func submatch(s string, loc []int, group int) string {
	start, end := loc[2*group], loc[2*group+1]
	if start < 0 {
		return ""
	}
	return strings.TrimSpace(s[start:end])
}
