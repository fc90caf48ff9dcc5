package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher"
	"github.com/wandering-ai/wecom-agent/internal/relay/store"
	"github.com/wandering-ai/wecom-agent/pkg/idx"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
	"github.com/wandering-ai/wecom-agent/pkg/wecom/message"
)

// ErrInvalidRequest wraps every validation failure of a SendRequest.
var ErrInvalidRequest = errors.New("invalid request")

// Sender is the part of *wecom.Agent the dispatcher uses.
type Sender interface {
	Send(ctx context.Context, payload any) (*wecom.SendOutcome, error)
}

// SendRequest is a message submitted to the relay. Content holds the JSON
// object the vendor expects under the msgtype key.
type SendRequest struct {
	ToUsers   []string
	ToParties []string
	ToTags    []string

	MsgType message.Type
	Content json.RawMessage

	Safe                   int
	EnableIDTrans          bool
	EnableDuplicateCheck   bool
	DuplicateCheckInterval int
}

// DispatchService builds messages, sends them as the configured agent and
// records the outcome in the ledger.
type DispatchService struct {
	Sender    Sender
	Store     store.Store
	Publisher publisher.Publisher
	AgentID   int64

	now func() time.Time
}

func NewDispatchService(sender Sender, st store.Store, pub publisher.Publisher, agentID int64) *DispatchService {
	if pub == nil {
		pub = publisher.NewNopPublisher()
	}
	return &DispatchService{
		Sender:    sender,
		Store:     st,
		Publisher: pub,
		AgentID:   agentID,
		now:       time.Now,
	}
}

// Build turns req into a vendor payload for this service's agent.
func (s *DispatchService) Build(req SendRequest) (*message.Message, error) {
	content, err := message.DecodeContent(req.MsgType, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	msg, err := message.NewBuilder().
		ToUsers(req.ToUsers...).
		ToParties(req.ToParties...).
		ToTags(req.ToTags...).
		FromAgent(s.AgentID).
		Safe(req.Safe).
		EnableIDTrans(req.EnableIDTrans).
		EnableDuplicateCheck(req.EnableDuplicateCheck).
		DuplicateCheckInterval(req.DuplicateCheckInterval).
		Build(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return msg, nil
}

// Dispatch sends req and records the vendor's verdict. A vendor rejection
// is a recorded delivery, not an error; errors mean nothing was delivered
// (invalid request, token failure, transport failure) or the ledger write
// failed.
func (s *DispatchService) Dispatch(ctx context.Context, apiKey string, req SendRequest) (domain.Delivery, error) {
	msg, err := s.Build(req)
	if err != nil {
		return domain.Delivery{}, err
	}

	outcome, err := s.Sender.Send(ctx, msg)
	if err != nil {
		return domain.Delivery{}, err
	}

	now := s.now().UTC()
	d := domain.Delivery{
		ID:             idx.NewAt(now),
		APIKey:         apiKey,
		MsgType:        string(msg.MsgType),
		ToUser:         msg.ToUser,
		ToParty:        msg.ToParty,
		ToTag:          msg.ToTag,
		AgentID:        msg.AgentID,
		Status:         statusOf(outcome),
		ErrCode:        outcome.ErrCode,
		ErrMsg:         outcome.ErrMsg,
		MsgID:          outcome.MsgID,
		Attempts:       outcome.Attempts,
		InvalidUser:    outcome.InvalidUser,
		InvalidParty:   outcome.InvalidParty,
		InvalidTag:     outcome.InvalidTag,
		UnlicensedUser: outcome.UnlicensedUser,
		CreatedAt:      now.Truncate(time.Millisecond),
	}

	log := slogx.FromContext(ctx).With("delivery_id", d.ID, "status", d.Status)

	if err := s.Store.Deliveries().CreateDelivery(ctx, d); err != nil {
		// The message already went out; surface the bookkeeping failure but
		// keep the vendor msgid in the log so it can be traced.
		log.Error("failed to record delivery", "msgid", d.MsgID, "error", err)
		return domain.Delivery{}, fmt.Errorf("failed to record delivery: %w", err)
	}

	s.publish(ctx, log, d)

	log.Info("message dispatched", "errcode", d.ErrCode, "attempts", d.Attempts)
	return d, nil
}

func (s *DispatchService) publish(ctx context.Context, log *slog.Logger, d domain.Delivery) {
	ev, err := publisher.NewEvent(d)
	if err == nil {
		err = s.Publisher.Publish(ctx, ev)
	}
	if err != nil {
		log.Warn("failed to publish delivery event", "error", err)
	}
}

// GetDelivery returns one ledger entry.
func (s *DispatchService) GetDelivery(ctx context.Context, id idx.ID) (domain.Delivery, error) {
	return s.Store.Deliveries().GetDeliveryByID(ctx, id)
}

// ListDeliveries pages through the ledger newest first.
func (s *DispatchService) ListDeliveries(ctx context.Context, limit int, before idx.ID) ([]domain.Delivery, error) {
	return s.Store.Deliveries().ListDeliveries(ctx, store.ListDeliveriesParams{Limit: limit, Before: before})
}

func statusOf(o *wecom.SendOutcome) domain.DeliveryStatus {
	switch {
	case !o.OK():
		return domain.DeliveryStatusRejected
	case o.Partial():
		return domain.DeliveryStatusPartial
	default:
		return domain.DeliveryStatusSent
	}
}
