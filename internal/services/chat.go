package services

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ekkaluck/bangfai-ledger/internal/errors"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/parser"
	"github.com/ekkaluck/bangfai-ledger/pkg/linechat"
)

// strictIntentRe recognizes a message that starts like the strict
// <venue><amount> convention. If its Thai prefix resolves to a venue but
// the full strict grammar rejects, the sender gets a usage hint instead of
// the heuristic scan.
var strictIntentRe = regexp.MustCompile(`^(\p{Thai}+)[0-9]+`)

// ChatService turns inbound chat events into ledger and round operations
// and sends fire-and-forget replies. Delivery failures are warnings; they
// never roll back a recorded bet or a round transition.
type ChatService struct {
	log      logger.Logger
	venues   VenueServicer
	rounds   RoundServicer
	ledger   LedgerServicer
	settings SettingsServicer
	notifier linechat.Client
	printer  *message.Printer
}

// NewChatService creates a new ChatService
func NewChatService(log logger.Logger, venues VenueServicer, rounds RoundServicer, ledger LedgerServicer, settings SettingsServicer, notifier linechat.Client) *ChatService {
	return &ChatService{
		log:      log,
		venues:   venues,
		rounds:   rounds,
		ledger:   ledger,
		settings: settings,
		notifier: notifier,
		printer:  message.NewPrinter(language.Thai),
	}
}

// baht formats a currency amount with Thai digit grouping
func (s *ChatService) baht(v int64) string {
	return s.printer.Sprintf("%v", number.Decimal(v))
}

// reply sends a fire-and-forget text reply
func (s *ChatService) reply(ctx context.Context, ev models.InboundEvent, text string) {
	if s.notifier == nil || ev.ReplyTarget == "" || text == "" {
		return
	}
	if err := s.notifier.Reply(ctx, ev.ReplyTarget, text); err != nil {
		s.log.Warn("Reply delivery failed", "error", err, "bettor", ev.Bettor)
	}
}

// HandleMessage classifies one inbound chat message and acts on it.
// Classification order: operator command, strict venue-stake bet,
// heuristic bet, venue-selection request, chatter. Chatter is ignored
// without a reply.
func (s *ChatService) HandleMessage(ctx context.Context, ev models.InboundEvent) error {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil
	}

	if cmd, ok := parser.ParseCommand(text); ok {
		return s.handleCommand(ctx, ev, cmd)
	}

	if sb, err := parser.ParseStrict(text); err == nil {
		if venue, verr := s.venues.Resolve(ctx, sb.Venue); verr == nil {
			return s.recordStrictBet(ctx, ev, venue, sb)
		}
		// Not a known venue; the heuristic grammar gets its turn below.
	} else if s.resemblesStrictBet(ctx, text) {
		s.reply(ctx, ev, err.Error())
		return nil
	}

	pb, err := parser.ParseBet(text)
	if err == nil {
		return s.recordHeuristicBet(ctx, ev, pb)
	}
	if !stderrors.Is(err, parser.ErrNotABet) {
		s.reply(ctx, ev, parseRejectionText(err))
		return nil
	}

	if venue, verr := s.venues.Resolve(ctx, text); verr == nil {
		s.reply(ctx, ev, "ห้องค่าย"+venue.Name+" "+venue.RoomLink)
		return nil
	}

	// Irrelevant chatter: no reply.
	return nil
}

// resemblesStrictBet reports whether the text starts with a known venue
// followed by digits, i.e. the sender tried the strict convention.
func (s *ChatService) resemblesStrictBet(ctx context.Context, text string) bool {
	m := strictIntentRe.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	_, err := s.venues.Resolve(ctx, m[1])
	return err == nil
}

func (s *ChatService) recordStrictBet(ctx context.Context, ev models.InboundEvent, venue *models.Venue, sb *parser.StrictBet) error {
	bet, err := s.ledger.Record(ctx, models.Bet{
		VenueID:     venue.ID,
		Bettor:      ev.Bettor,
		DisplayName: ev.DisplayName,
		BetType:     models.BetVenueAliasA,
		Amount:      sb.Amount,
	})
	if err != nil {
		s.replyError(ctx, ev, err)
		return nil
	}
	s.reply(ctx, ev, "รับยอด "+venue.Name+" "+s.baht(bet.Amount)+" บาท")
	return nil
}

func (s *ChatService) recordHeuristicBet(ctx context.Context, ev models.InboundEvent, pb *parser.ParsedBet) error {
	venue, err := s.venues.ResolveGroup(ctx, ev.VenueHint)
	if err != nil {
		s.reply(ctx, ev, "ห้องนี้ยังไม่ได้ผูกกับค่าย")
		return nil
	}

	bet, err := s.ledger.Record(ctx, models.Bet{
		VenueID:     venue.ID,
		Bettor:      ev.Bettor,
		DisplayName: ev.DisplayName,
		FireworkID:  pb.FireworkID,
		BetType:     pb.BetType,
		Amount:      pb.Amount,
	})
	if err != nil {
		s.replyError(ctx, ev, err)
		return nil
	}
	s.reply(ctx, ev, "รับโพย "+bet.FireworkID+" ยอด "+s.baht(bet.Amount)+" บาท")
	return nil
}

func (s *ChatService) handleCommand(ctx context.Context, ev models.InboundEvent, cmd *parser.Command) error {
	isOp, err := s.settings.IsOperator(ctx, ev.Bettor)
	if err != nil {
		return err
	}
	if !isOp {
		// Command words from non-operators are chatter.
		return nil
	}

	venue, err := s.venues.ResolveGroup(ctx, ev.VenueHint)
	if err != nil {
		s.reply(ctx, ev, "ห้องนี้ยังไม่ได้ผูกกับค่าย")
		return nil
	}

	switch cmd.Kind {
	case parser.CmdOpenRound:
		round, err := s.rounds.Open(ctx, venue.ID, cmd.FireworkNumber)
		if err != nil {
			s.replyError(ctx, ev, err)
			return nil
		}
		s.reply(ctx, ev, s.printer.Sprintf("เปิดรอบที่ %d แทงได้เลย", round.FireworkNumber))

	case parser.CmdCloseRound:
		open, err := s.rounds.OpenForVenue(ctx, venue.ID)
		if err != nil {
			s.replyError(ctx, ev, err)
			return nil
		}
		round, err := s.rounds.Close(ctx, open.ID)
		if err != nil {
			s.replyError(ctx, ev, err)
			return nil
		}
		agg, err := s.ledger.AggregatesFor(ctx, round.ID)
		if err != nil {
			return err
		}
		s.reply(ctx, ev, s.printer.Sprintf("ปิดรอบที่ %d รวม %d โพย ยอด %s บาท",
			round.FireworkNumber, agg.Count, s.baht(agg.Sum)))

	case parser.CmdSettle:
		return s.handleSettle(ctx, ev, venue, cmd.Winners)

	case parser.CmdTotals:
		open, err := s.rounds.OpenForVenue(ctx, venue.ID)
		if err != nil {
			s.replyError(ctx, ev, err)
			return nil
		}
		agg, err := s.ledger.AggregatesFor(ctx, open.ID)
		if err != nil {
			return err
		}
		s.reply(ctx, ev, s.printer.Sprintf("รอบที่ %d รวม %d โพย ยอด %s บาท",
			open.FireworkNumber, agg.Count, s.baht(agg.Sum)))
	}

	return nil
}

// handleSettle settles the venue's most recently closed round. Winner
// names are resolved against the round's bettors by display name or raw
// id; unresolvable names abort the settlement with a reply rather than
// silently settling a partial winner set.
func (s *ChatService) handleSettle(ctx context.Context, ev models.InboundEvent, venue *models.Venue, winnerNames []string) error {
	closed, err := s.rounds.List(ctx, venue.ID, models.RoundClosed)
	if err != nil {
		return err
	}
	if len(closed) == 0 {
		s.reply(ctx, ev, "ไม่พบรอบที่ปิดรอประกาศผล")
		return nil
	}
	round := closed[0]

	bets, err := s.ledger.BetsByRound(ctx, round.ID)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(bets))
	bettors := make(map[string]bool, len(bets))
	for _, b := range bets {
		if b.DisplayName != "" {
			byName[b.DisplayName] = b.Bettor
		}
		bettors[b.Bettor] = true
	}

	var winnerIDs []string
	var unresolved []string
	for _, name := range winnerNames {
		if id, ok := byName[name]; ok {
			winnerIDs = append(winnerIDs, id)
		} else if bettors[name] {
			winnerIDs = append(winnerIDs, name)
		} else {
			unresolved = append(unresolved, name)
		}
	}
	if len(unresolved) > 0 {
		s.reply(ctx, ev, "ไม่พบชื่อ: "+strings.Join(unresolved, " "))
		return nil
	}

	settlement, err := s.rounds.Settle(ctx, round.ID, winnerIDs)
	if err != nil {
		s.replyError(ctx, ev, err)
		return nil
	}

	s.reply(ctx, ev, s.printer.Sprintf(
		"สรุปรอบที่ %d\nโพยทั้งหมด %d\nยอดรวม %s บาท\nจ่าย %s บาท\nคงเหลือ %s บาท",
		round.FireworkNumber, settlement.TotalBets,
		s.baht(settlement.TotalRevenue), s.baht(settlement.TotalPayout), s.baht(settlement.Profit)))
	return nil
}

// replyError maps an application error to a corrective Thai reply. None of
// these crash the handling; the user corrects and retries.
func (s *ChatService) replyError(ctx context.Context, ev models.InboundEvent, err error) {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		s.log.Error("Chat operation failed", "error", err)
		s.reply(ctx, ev, "ระบบขัดข้อง ลองใหม่อีกครั้ง")
		return
	}
	switch appErr.Kind {
	case errors.ErrNotFound:
		s.reply(ctx, ev, "ไม่พบรอบที่เปิดอยู่")
	case errors.ErrInvalidState:
		s.reply(ctx, ev, "ทำรายการไม่ได้ สถานะรอบไม่ถูกต้อง")
	case errors.ErrValidation:
		s.reply(ctx, ev, "ข้อมูลไม่ถูกต้อง "+appErr.Message)
	case errors.ErrParseRejected:
		s.reply(ctx, ev, parseRejectionText(appErr))
	default:
		s.log.Error("Chat operation failed", "error", err)
		s.reply(ctx, ev, "ระบบขัดข้อง ลองใหม่อีกครั้ง")
	}
}

// parseRejectionText maps parser rejections to user-facing Thai hints.
func parseRejectionText(err error) string {
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		switch {
		case appErr.Kind == errors.ErrValidation:
			return "จำนวนเงินต้องเป็นจำนวนเต็มและมากกว่า 0"
		case strings.Contains(appErr.Message, "firework"):
			return "ไม่พบหมายเลขบั้งไฟ ระบุหมายเลขที่ต้องการแทงด้วย"
		}
		return appErr.Message
	}
	return "รูปแบบข้อความไม่ถูกต้อง"
}
