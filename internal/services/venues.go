package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/Frontware/promptpay"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/ekkaluck/bangfai-ledger/internal/errors"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
)

// promptPayIDRe matches a phone number, citizen id, or e-wallet id as used
// for PromptPay transfers. Anything else in payment_link is treated as a
// plain URL.
var promptPayIDRe = regexp.MustCompile(`^[0-9]{10,15}$`)

// VenueService handles the venue registry
type VenueService struct {
	log  logger.Logger
	repo repository.VenueRepository
}

// NewVenueService creates a new VenueService
func NewVenueService(log logger.Logger, repo repository.VenueRepository) *VenueService {
	return &VenueService{log: log, repo: repo}
}

// VenueInput carries the fields an operator supplies for a venue
type VenueInput struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	GroupID     string   `json:"group_id"`
	RoomLink    string   `json:"room_link"`
	PaymentLink string   `json:"payment_link"`
}

// List returns all venues, active and inactive
func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	return s.repo.ListVenues(ctx)
}

// Get retrieves a venue by id
func (s *VenueService) Get(ctx context.Context, id int) (*models.Venue, error) {
	v, err := s.repo.GetVenue(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("venue %d not found", id)
	}
	return v, err
}

// Create registers a new venue
func (s *VenueService) Create(ctx context.Context, in VenueInput) (*models.Venue, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.Validation("venue name is required")
	}

	id, err := s.repo.CreateVenue(ctx, models.Venue{
		Name:        name,
		Aliases:     in.Aliases,
		GroupID:     in.GroupID,
		RoomLink:    in.RoomLink,
		PaymentLink: in.PaymentLink,
		Active:      true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, errors.Validationf("venue %q already exists", name)
		}
		return nil, err
	}

	s.log.Info("Venue created", "venue_id", id, "name", name)
	return s.repo.GetVenue(ctx, int(id))
}

// Update changes a venue's mutable fields
func (s *VenueService) Update(ctx context.Context, id int, in VenueInput) (*models.Venue, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.Validation("venue name is required")
	}
	err := s.repo.UpdateVenue(ctx, id, name, in.Aliases, in.GroupID, in.RoomLink, in.PaymentLink)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("venue %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return s.repo.GetVenue(ctx, id)
}

// Deactivate flips a venue inactive. Venues are never hard deleted so
// historical bets keep a resolvable reference.
func (s *VenueService) Deactivate(ctx context.Context, id int) error {
	err := s.repo.SetVenueActive(ctx, id, false)
	if err == repository.ErrNotFound {
		return errors.NotFoundf("venue %d not found", id)
	}
	if err == nil {
		s.log.Info("Venue deactivated", "venue_id", id)
	}
	return err
}

// Resolve finds an active venue by name or alias
func (s *VenueService) Resolve(ctx context.Context, nameOrAlias string) (*models.Venue, error) {
	v, err := s.repo.FindVenueByName(ctx, strings.TrimSpace(nameOrAlias))
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("venue %q not found", nameOrAlias)
	}
	if err != nil {
		return nil, err
	}
	if !v.Active {
		return nil, errors.NotFoundf("venue %q is not active", nameOrAlias)
	}
	return v, nil
}

// ResolveGroup finds the venue bound to a chat group
func (s *VenueService) ResolveGroup(ctx context.Context, groupID string) (*models.Venue, error) {
	if groupID == "" {
		return nil, errors.NotFound("message did not arrive from a venue group")
	}
	v, err := s.repo.FindVenueByGroup(ctx, groupID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("no venue bound to group %s", groupID)
	}
	return v, err
}

// PaymentQR renders the venue's payment link as a QR PNG. A digits-only
// link is treated as a PromptPay id and wrapped in a PromptPay payload;
// anything else is encoded as-is.
func (s *VenueService) PaymentQR(ctx context.Context, id int) ([]byte, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.Active {
		return nil, errors.NotFoundf("venue %d is not active", id)
	}
	if v.PaymentLink == "" {
		return nil, errors.NotFoundf("venue %d has no payment link", id)
	}

	payload := v.PaymentLink
	if promptPayIDRe.MatchString(v.PaymentLink) {
		payment := promptpay.PromptPay{PromptPayID: v.PaymentLink}
		payload, err = payment.Gen()
		if err != nil {
			return nil, err
		}
	}

	return qrcode.Encode(payload, qrcode.Medium, 256)
}
