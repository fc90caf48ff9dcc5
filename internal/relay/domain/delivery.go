package domain

import (
	"time"

	"github.com/wandering-ai/wecom-agent/pkg/idx"
)

// DeliveryStatus summarises the vendor's answer to a send.
type DeliveryStatus string

const (
	// DeliveryStatusSent means every recipient was accepted.
	DeliveryStatusSent DeliveryStatus = "sent"
	// DeliveryStatusPartial means the message went out but some recipients
	// were invalid or unlicensed.
	DeliveryStatusPartial DeliveryStatus = "partial"
	// DeliveryStatusRejected means the vendor refused the message.
	DeliveryStatusRejected DeliveryStatus = "rejected"
)

// Delivery is one relayed message and the vendor's verdict on it.
type Delivery struct {
	ID idx.ID

	// APIKey is the fingerprint of the relay key that submitted it.
	APIKey string

	MsgType string
	ToUser  string
	ToParty string
	ToTag   string
	AgentID int64

	Status   DeliveryStatus
	ErrCode  int64
	ErrMsg   string
	MsgID    string
	Attempts int

	InvalidUser    string
	InvalidParty   string
	InvalidTag     string
	UnlicensedUser string

	CreatedAt time.Time
}
