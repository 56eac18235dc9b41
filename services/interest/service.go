// Package interest carries buyer to seller contact: private interest
// messages, public questions and the contact-aware listing view.
package interest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meramarket/models"
	"meramarket/services/billing"
	"meramarket/services/listings"
	"meramarket/services/notification"
	"meramarket/services/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store    Store
	listings *listings.Service
	notifier notification.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithNotifier pushes new interests and questions to the seller.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(store Store, list *listings.Service, logger *zap.Logger, opts ...Option) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Service{store: store, listings: list, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendInterest stores a buyer's message to the seller. Messages carrying
// contact details are rejected, not redacted.
func (s *Service) SendInterest(ctx context.Context, sender *models.User, listingID, message string) (*models.Interest, error) {
	if sender == nil {
		return nil, ErrForbidden
	}
	message, err := checkLength(message)
	if err != nil {
		return nil, err
	}
	if v := sanitize.Validate(message); !v.IsValid {
		return nil, &listings.ContactInfoError{Field: "message", Violations: v.Errors}
	}

	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerID == sender.ID {
		return nil, ErrOwnListing
	}
	if l.Status != models.ListingActive {
		return nil, fmt.Errorf("%w: listing is %s", ErrNotAvailable, l.Status)
	}

	i := &models.Interest{
		ID:          uuid.NewString(),
		ListingID:   l.ID,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		SenderPhone: sender.Phone,
		SenderEmail: sender.Email,
		Message:     message,
		CreatedAt:   s.now(),
	}
	if err := s.store.AddInterest(ctx, i); err != nil {
		return nil, fmt.Errorf("failed to store interest: %w", err)
	}
	s.logger.Info("Interest sent", zap.String("listingId", l.ID), zap.String("senderId", sender.ID))
	body := sanitize.Sanitize(sender.Name+": "+message, false).Text
	s.notify(ctx, l, "interest", "New interest in "+l.Title, body)
	return i, nil
}

// ListInterests shows the owner who is interested. Sender contacts and the
// unredacted message need the interested-contacts add-on for the listing.
func (s *Service) ListInterests(ctx context.Context, owner *models.User, listingID string, page models.PageRequest) (models.Page[models.InterestView], error) {
	if owner == nil {
		return models.Page[models.InterestView]{}, ErrForbidden
	}
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return models.Page[models.InterestView]{}, err
	}
	if l.SellerID != owner.ID && !owner.IsAdmin() {
		return models.Page[models.InterestView]{}, ErrForbidden
	}

	all, err := s.store.ListInterests(ctx, listingID)
	if err != nil {
		return models.Page[models.InterestView]{}, err
	}
	reveal := billing.CanViewInterestedContacts(owner.Entitlements, listingID)
	views := make([]models.InterestView, len(all))
	for n, i := range all {
		views[n] = interestView(i, reveal)
	}
	return models.Paginate(views, page), nil
}

func interestView(i models.Interest, reveal bool) models.InterestView {
	v := models.InterestView{
		ID:         i.ID,
		ListingID:  i.ListingID,
		SenderName: i.SenderName,
		Message:    i.Message,
		CreatedAt:  i.CreatedAt,
	}
	if reveal {
		v.SenderPhone = i.SenderPhone
		v.SenderEmail = i.SenderEmail
		return v
	}
	r := sanitize.Sanitize(i.Message, false)
	v.Message = r.Text
	v.HasRedactions = r.HasRedactions
	v.ContactsHidden = true
	return v
}

// AskQuestion posts a public question. Contact details are redacted before
// the question is stored.
func (s *Service) AskQuestion(ctx context.Context, author *models.User, listingID, text string) (*models.Question, error) {
	if author == nil {
		return nil, ErrForbidden
	}
	text, err := checkLength(text)
	if err != nil {
		return nil, err
	}
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != models.ListingActive {
		return nil, fmt.Errorf("%w: listing is %s", ErrNotAvailable, l.Status)
	}

	r := sanitize.Sanitize(text, false)
	q := &models.Question{
		ID:         uuid.NewString(),
		ListingID:  l.ID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Text:       r.Text,
		Redacted:   r.HasRedactions,
		CreatedAt:  s.now(),
	}
	if err := s.store.AddQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to store question: %w", err)
	}
	if q.Redacted {
		s.logger.Info("Question redacted", zap.String("listingId", l.ID), zap.String("authorId", author.ID))
	}
	if author.ID != l.SellerID {
		s.notify(ctx, l, "question", "New question on "+l.Title, q.Text)
	}
	return q, nil
}

func (s *Service) ListQuestions(ctx context.Context, listingID string, page models.PageRequest) (models.Page[models.Question], error) {
	if _, err := s.listings.Get(ctx, listingID); err != nil {
		return models.Page[models.Question]{}, err
	}
	all, err := s.store.ListQuestions(ctx, listingID)
	if err != nil {
		return models.Page[models.Question]{}, err
	}
	return models.Paginate(all, page), nil
}

// ListingView returns a listing as viewer may see it and counts the view.
// Listings that are not active are only visible to their seller and admins,
// and the seller's own views are not counted. The seller's phone and any
// contact details in the description stay hidden unless viewer owns the
// listing, is an admin or holds an active contact pass. viewer may be nil.
func (s *Service) ListingView(ctx context.Context, viewer *models.User, listingID string) (*models.ListingView, error) {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	owner := viewer != nil && viewer.ID == l.SellerID
	if l.Status != models.ListingActive && !owner && !viewer.IsAdmin() {
		return nil, listings.ErrNotFound
	}
	if !owner {
		if l, err = s.listings.View(ctx, listingID); err != nil {
			return nil, err
		}
	}
	v := &models.ListingView{Listing: *l}
	if s.canReveal(viewer, l) {
		return v, nil
	}
	r := sanitize.Sanitize(l.Description, false)
	v.Description = r.Text
	v.HasRedactions = r.HasRedactions
	if v.SellerPhone != "" {
		v.SellerPhone = sanitize.ContactPlaceholder
	}
	v.ContactsHidden = true
	return v, nil
}

func (s *Service) canReveal(viewer *models.User, l *models.Listing) bool {
	if viewer == nil {
		return false
	}
	return viewer.ID == l.SellerID || viewer.IsAdmin() || billing.IsContactPassActive(viewer.Entitlements, s.now())
}

// notify tells the seller about activity on their listing. Delivery
// failures are logged only.
func (s *Service) notify(ctx context.Context, l *models.Listing, kind, title, body string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notification.Message{
		UserID: l.SellerID,
		Title:  title,
		Body:   body,
		Data:   map[string]string{"type": kind, "listingId": l.ID},
	})
	if err != nil {
		s.logger.Warn("Failed to notify seller", zap.String("listingId", l.ID), zap.String("type", kind), zap.Error(err))
	}
}

func checkLength(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", ErrEmptyMessage
	case len(text) > MaxMessageLength:
		return "", ErrMessageLength
	}
	return text, nil
}
