// Package parser turns free-form Thai chat messages into structured bet
// records. It is pure: no I/O, no side effects, text in, struct or
// rejection out.
package parser

import (
	stderrors "errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ekkaluck/bangfai-ledger/internal/errors"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
)

// ErrNotABet signals that the message is not a wager at all (no bet-type
// token, or no numeric run anywhere). Callers treat this as chatter rather
// than a malformed bet.
var ErrNotABet = stderrors.New("message is not a bet")

// ParsedBet is the structured result of the heuristic bet grammar.
type ParsedBet struct {
	FireworkID string
	BetType    models.BetType
	Amount     int64
}

// StrictBet is the result of the strict <venue><amount> grammar.
type StrictBet struct {
	Venue  string
	Amount int64
}

// betTypeTokens maps raw message tokens to canonical bet-type codes.
// Order matters: longest tokens first, so a short alias never matches
// inside a longer one (ชล must win over ล).
var betTypeTokens = []struct {
	token string
	code  models.BetType
}{
	{"สกัด", models.BetIntercept},
	{"ถอย", models.BetRetreat},
	{"ยั้ง", models.BetHold},
	{"ล่าง", models.BetLower},
	{"บน", models.BetUpper},
	{"ลบ", models.BetMinus},
	{"ชถ", models.BetVenueAliasA},
	{"ชล", models.BetVenueAliasA},
	{"ถ", models.BetRetreat},
	{"ย", models.BetHold},
	{"บ", models.BetUpper},
	{"ล", models.BetLower},
}

var (
	// a numeric run: digits, optionally with a decimal point
	numRunRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	// a numeric run anchored at the start of a string
	numRunStartRe = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)?`)
	// a numeric run containing at least one separator, e.g. 295-108-1 or 80.05
	sepRunRe = regexp.MustCompile(`[0-9]+(?:[./*-][0-9]+)+`)
	// a plain digit run
	digitRunRe = regexp.MustCompile(`[0-9]+`)
	// the strict <venue><amount> message convention: a Thai-script run
	// immediately followed by digits, nothing else
	strictRe = regexp.MustCompile(`^(\p{Thai}+)([0-9]+)$`)
)

type tokenMatch struct {
	start, end int
	code       models.BetType
}

// tokenMatches finds every bet-type token occurrence, longest token first.
// Bytes claimed by a longer token are never re-matched by a shorter one.
// Results are sorted by position in the text.
func tokenMatches(text string) []tokenMatch {
	consumed := make([]bool, len(text))
	var matches []tokenMatch

	for _, bt := range betTypeTokens {
		for i := 0; i+len(bt.token) <= len(text); {
			j := strings.Index(text[i:], bt.token)
			if j < 0 {
				break
			}
			start := i + j
			end := start + len(bt.token)
			if overlapsConsumed(consumed, start, end) {
				i = start + 1
				continue
			}
			matches = append(matches, tokenMatch{start: start, end: end, code: bt.code})
			for k := start; k < end; k++ {
				consumed[k] = true
			}
			i = end
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	return matches
}

func overlapsConsumed(consumed []bool, start, end int) bool {
	for k := start; k < end; k++ {
		if consumed[k] {
			return true
		}
	}
	return false
}

// isWhole reports whether a numeric run carries no decimal point.
func isWhole(run string) bool {
	return !strings.Contains(run, ".")
}

// ParseBet applies the heuristic bet grammar: leftmost bet-type token,
// layered amount rules, separator-first firework identifier. It returns
// ErrNotABet when the text carries no bet-type token or no numeric run at
// all, and a kind-tagged error when a wager was attempted but is malformed.
func ParseBet(text string) (*ParsedBet, error) {
	matches := tokenMatches(text)
	if len(matches) == 0 {
		return nil, ErrNotABet
	}
	betType := matches[0].code

	amount, err := extractAmount(text, matches)
	if err != nil {
		return nil, err
	}

	fireworkID, err := extractFireworkID(text, matches[0].start)
	if err != nil {
		return nil, err
	}

	return &ParsedBet{FireworkID: fireworkID, BetType: betType, Amount: amount}, nil
}

// extractAmount applies the ordered amount rules; the first rule that
// yields a candidate wins.
func extractAmount(text string, matches []tokenMatch) (int64, error) {
	// Rule 1: numeric run immediately after a bet-type token. Whole numbers
	// of value >= 10 only; decimals here are firework names, not stakes.
	// The maximum wins so an earlier decoy number cannot shadow the stake.
	var best int64 = -1
	for _, m := range matches {
		rest := text[m.end:]
		trimmed := strings.TrimLeft(rest, " \t")
		run := numRunStartRe.FindString(trimmed)
		if run == "" || !isWhole(run) {
			continue
		}
		v, err := strconv.ParseInt(run, 10, 64)
		if err != nil || v < 10 {
			continue
		}
		if v > best {
			best = v
		}
	}
	if best >= 0 {
		return best, nil
	}

	runs := numRunRe.FindAllString(text, -1)
	if len(runs) == 0 {
		return 0, ErrNotABet
	}

	// Rule 2: rightmost whole number >= 10 anywhere in the text.
	for i := len(runs) - 1; i >= 0; i-- {
		if !isWhole(runs[i]) {
			continue
		}
		v, err := strconv.ParseInt(runs[i], 10, 64)
		if err != nil || v < 10 {
			continue
		}
		return v, nil
	}

	// Rule 3: last numeric run of any magnitude, provided it is positive.
	// A fractional stake still violates the whole-amount invariant, so it
	// is rejected here instead of being truncated.
	last := runs[len(runs)-1]
	if !isWhole(last) {
		return 0, errors.Validation("stake amount must be a whole number")
	}
	v, err := strconv.ParseInt(last, 10, 64)
	if err != nil || v <= 0 {
		return 0, errors.Validation("stake amount must be positive")
	}
	return v, nil
}

// extractFireworkID locates the wagered entry: a separator-bearing numeric
// run first, else the first plain run before the earliest bet-type token.
// A bet with no recognizable target is rejected outright.
func extractFireworkID(text string, firstToken int) (string, error) {
	if loc := sepRunRe.FindStringIndex(text); loc != nil {
		return text[loc[0]:loc[1]], nil
	}

	for _, loc := range digitRunRe.FindAllStringIndex(text, -1) {
		if loc[0] < firstToken {
			return text[loc[0]:loc[1]], nil
		}
	}

	return "", errors.ParseRejected("cannot determine firework identifier")
}

// ParseStrict applies the narrow <venue><amount> grammar: a Thai-script
// venue token immediately followed by digits, with nothing else. Any
// deviation is rejected with a usage hint and never handed to the
// heuristic parser.
func ParseStrict(text string) (*StrictBet, error) {
	m := strictRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, errors.ParseRejected("รูปแบบไม่ถูกต้อง พิมพ์ชื่อค่ายติดกับจำนวนเงิน เช่น มะปราง100")
	}
	amount, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || amount <= 0 {
		return nil, errors.ParseRejected("รูปแบบไม่ถูกต้อง จำนวนเงินต้องมากกว่า 0")
	}
	return &StrictBet{Venue: m[1], Amount: amount}, nil
}

// BetTypeFor resolves a raw token to its canonical code, if any.
func BetTypeFor(token string) (models.BetType, bool) {
	for _, bt := range betTypeTokens {
		if bt.token == token {
			return bt.code, true
		}
	}
	return "", false
}
