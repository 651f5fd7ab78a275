package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandKind identifies an operator chat command.
type CommandKind int

const (
	CmdOpenRound CommandKind = iota
	CmdCloseRound
	CmdSettle
	CmdTotals
)

// Command is a parsed operator command.
type Command struct {
	Kind           CommandKind
	FireworkNumber int      // CmdOpenRound
	Winners        []string // CmdSettle; may be empty (no winners)
}

var openRoundRe = regexp.MustCompile(`^เปิดรอบ\s+([0-9]+)$`)

const (
	closeRoundWord = "ปิดรอบ"
	settleWord     = "ประกาศผล"
	totalsWord     = "ยอดรวม"
)

// ParseCommand recognizes the operator command vocabulary. It reports
// false for anything else; command texts are exact, not fuzzy.
func ParseCommand(text string) (*Command, bool) {
	trimmed := strings.TrimSpace(text)

	if m := openRoundRe.FindStringSubmatch(trimmed); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, false
		}
		return &Command{Kind: CmdOpenRound, FireworkNumber: n}, true
	}

	if trimmed == closeRoundWord {
		return &Command{Kind: CmdCloseRound}, true
	}

	if trimmed == totalsWord {
		return &Command{Kind: CmdTotals}, true
	}

	if trimmed == settleWord || strings.HasPrefix(trimmed, settleWord+" ") {
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, settleWord))
		var winners []string
		if rest != "" {
			winners = strings.Fields(rest)
		}
		return &Command{Kind: CmdSettle, Winners: winners}, true
	}

	return nil, false
}
