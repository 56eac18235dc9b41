package interest

import (
	"context"
	"errors"

	"meramarket/models"
)

var (
	ErrForbidden     = errors.New("only the listing owner can see its interests")
	ErrOwnListing    = errors.New("cannot send interest on your own listing")
	ErrEmptyMessage  = errors.New("message is required")
	ErrNotAvailable  = errors.New("listing is not open for interest")
	ErrMessageLength = errors.New("message is too long")
)

// MaxMessageLength caps interest messages and questions, in bytes.
const MaxMessageLength = 1000

// Store keeps interests and questions per listing. List calls return
// records newest first.
type Store interface {
	AddInterest(ctx context.Context, i *models.Interest) error
	ListInterests(ctx context.Context, listingID string) ([]models.Interest, error)
	AddQuestion(ctx context.Context, q *models.Question) error
	ListQuestions(ctx context.Context, listingID string) ([]models.Question, error)
}
