package publisher

import (
	"errors"
	"time"

	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
)

// SchemaDeliveryV1 identifies the Event layout below.
const SchemaDeliveryV1 = "wecom.delivery.v1"

var ErrEmptyDeliveryID = errors.New("publisher: delivery id is required")

// Event describes one delivery outcome. Recipient lists are kept in the
// vendor's "|" separated form.
type Event struct {
	Schema     string    `json:"schema"`
	DeliveryID string    `json:"delivery_id"`
	OccurredAt time.Time `json:"occurred_at"`

	MsgType  string `json:"msgtype"`
	AgentID  int64  `json:"agentid"`
	Status   string `json:"status"`
	ErrCode  int64  `json:"errcode"`
	ErrMsg   string `json:"errmsg,omitempty"`
	MsgID    string `json:"msgid,omitempty"`
	Attempts int    `json:"attempts"`

	InvalidUser    string `json:"invaliduser,omitempty"`
	InvalidParty   string `json:"invalidparty,omitempty"`
	InvalidTag     string `json:"invalidtag,omitempty"`
	UnlicensedUser string `json:"unlicenseduser,omitempty"`
}

// NewEvent builds an Event from a recorded delivery.
func NewEvent(d domain.Delivery) (*Event, error) {
	if d.ID.IsZero() {
		return nil, ErrEmptyDeliveryID
	}

	return &Event{
		Schema:         SchemaDeliveryV1,
		DeliveryID:     d.ID.String(),
		OccurredAt:     d.CreatedAt,
		MsgType:        d.MsgType,
		AgentID:        d.AgentID,
		Status:         string(d.Status),
		ErrCode:        d.ErrCode,
		ErrMsg:         d.ErrMsg,
		MsgID:          d.MsgID,
		Attempts:       d.Attempts,
		InvalidUser:    d.InvalidUser,
		InvalidParty:   d.InvalidParty,
		InvalidTag:     d.InvalidTag,
		UnlicensedUser: d.UnlicensedUser,
	}, nil
}
