package http

import (
	"encoding/json"
	"time"

	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/pkg/wecom/message"
)

// SendMessageRequest is the body of POST /v1/messages.
type SendMessageRequest struct {
	ToUsers   []string `json:"to_users,omitempty" example:"robin,tom"`
	ToParties []string `json:"to_parties,omitempty"`
	ToTags    []string `json:"to_tags,omitempty"`

	MsgType string          `json:"msgtype" example:"text"`
	Content json.RawMessage `json:"content" swaggertype:"object"`

	Safe                   int  `json:"safe,omitempty"`
	EnableIDTrans          bool `json:"enable_id_trans,omitempty"`
	EnableDuplicateCheck   bool `json:"enable_duplicate_check,omitempty"`
	DuplicateCheckInterval int  `json:"duplicate_check_interval,omitempty"`
}

func (req SendMessageRequest) toService() service.SendRequest {
	return service.SendRequest{
		ToUsers:                req.ToUsers,
		ToParties:              req.ToParties,
		ToTags:                 req.ToTags,
		MsgType:                message.Type(req.MsgType),
		Content:                req.Content,
		Safe:                   req.Safe,
		EnableIDTrans:          req.EnableIDTrans,
		EnableDuplicateCheck:   req.EnableDuplicateCheck,
		DuplicateCheckInterval: req.DuplicateCheckInterval,
	}
}

// DeliveryResponse is one ledger entry.
type DeliveryResponse struct {
	ID       string `json:"id"`
	MsgType  string `json:"msgtype"`
	ToUser   string `json:"to_user,omitempty"`
	ToParty  string `json:"to_party,omitempty"`
	ToTag    string `json:"to_tag,omitempty"`
	AgentID  int64  `json:"agentid"`
	Status   string `json:"status" example:"sent"`
	ErrCode  int64  `json:"errcode"`
	ErrMsg   string `json:"errmsg,omitempty"`
	MsgID    string `json:"msgid,omitempty"`
	Attempts int    `json:"attempts"`

	InvalidUser    string `json:"invalid_user,omitempty"`
	InvalidParty   string `json:"invalid_party,omitempty"`
	InvalidTag     string `json:"invalid_tag,omitempty"`
	UnlicensedUser string `json:"unlicensed_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func toDeliveryResponse(d domain.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:             d.ID.String(),
		MsgType:        d.MsgType,
		ToUser:         d.ToUser,
		ToParty:        d.ToParty,
		ToTag:          d.ToTag,
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
		CreatedAt:      d.CreatedAt,
	}
}

// ListDeliveriesResponse is a page of the ledger, newest first. NextBefore
// is set when another page may exist.
type ListDeliveriesResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
	NextBefore string             `json:"next_before,omitempty"`
}

// HealthResponse is returned by the probe endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database   string `json:"database"`
	Credential string `json:"credential"`
}
