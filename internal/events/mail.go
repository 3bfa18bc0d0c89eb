package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"solarshare/internal/mailer"
	"solarshare/internal/models"
)

// CommunityDirectory resolves a community and its members.
type CommunityDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	ListMembers(ctx context.Context, communityID uint) ([]models.Profile, error)
}

// QuoteLookup loads a quote with its provider.
type QuoteLookup interface {
	GetQuote(ctx context.Context, id uint) (*models.ProviderQuote, error)
}

// MailNotifier turns workflow events into member emails.
type MailNotifier struct {
	mail        mailer.Mailer
	communities CommunityDirectory
	quotes      QuoteLookup
	baseURL     string
}

// NewMailNotifier builds a notifier linking back to baseURL.
func NewMailNotifier(m mailer.Mailer, communities CommunityDirectory, quotes QuoteLookup, baseURL string) *MailNotifier {
	return &MailNotifier{mail: m, communities: communities, quotes: quotes, baseURL: baseURL}
}

// Register attaches the notifier's handlers to r. Progress mails are only
// sent when progressMail is set.
func (n *MailNotifier) Register(r *Relayer, progressMail bool) {
	r.Handle(models.EventQuoteRequestClosed, n.VotingClosed)
	if progressMail {
		r.Handle(models.EventProjectProgressed, n.ProjectProgressed)
	}
}

// VotingClosed emails every member of the community the selected provider.
func (n *MailNotifier) VotingClosed(ctx context.Context, ev *models.OutboxEvent) error {
	var p models.QuoteRequestClosedPayload
	if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.EventType, err)
	}
	community, err := n.communities.GetByID(ctx, p.CommunityID)
	if err != nil {
		return err
	}
	quote, err := n.quotes.GetQuote(ctx, p.ProviderQuoteID)
	if err != nil {
		return err
	}
	provider := "Unknown Provider"
	if quote.Provider != nil && quote.Provider.Name != "" {
		provider = quote.Provider.Name
	}

	return n.broadcast(ctx, community.ID, func(member models.Profile) (mailer.Message, error) {
		return mailer.VotingClosedEmail(member.Email, mailer.VotingClosed{
			Name:      member.Name,
			Community: community.Name,
			Provider:  provider,
			TotalCost: quote.TotalCost.StringFixed(2),
			Link:      n.baseURL + "/installation/tracking",
		})
	})
}

// ProjectProgressed emails members when the installation advances.
func (n *MailNotifier) ProjectProgressed(ctx context.Context, ev *models.OutboxEvent) error {
	var p models.ProjectProgressedPayload
	if err := json.Unmarshal([]byte(ev.Payload), &p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.EventType, err)
	}
	community, err := n.communities.GetByID(ctx, p.CommunityID)
	if err != nil {
		return err
	}
	return n.broadcast(ctx, community.ID, func(member models.Profile) (mailer.Message, error) {
		return mailer.ProjectUpdateEmail(member.Email, mailer.ProjectUpdate{
			Name:      member.Name,
			Community: community.Name,
			Status:    string(p.Status),
			Progress:  p.ProgressPercentage,
			Link:      n.baseURL + "/installation/tracking",
		})
	})
}

// broadcast fails only when no member could be reached, so one bad address
// does not resend the event to everyone else.
func (n *MailNotifier) broadcast(ctx context.Context, communityID uint, build func(models.Profile) (mailer.Message, error)) error {
	members, err := n.communities.ListMembers(ctx, communityID)
	if err != nil {
		return err
	}
	var delivered int
	var lastErr error
	for _, m := range members {
		msg, err := build(m)
		if err == nil {
			err = n.mail.Send(ctx, msg)
		}
		if err != nil {
			lastErr = err
			slog.WarnContext(ctx, "member mail failed", slog.Uint64("user_id", uint64(m.ID)), slog.String("error", err.Error()))
			continue
		}
		delivered++
	}
	if delivered == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}
