package wecom

import "strings"

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is the body returned by GET /gettoken.
type TokenResponse struct {
	ErrCode     int64  `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// ============================================================================
// Send Types
// ============================================================================

// SendOutcome is the body returned by POST /message/send. A non-zero ErrCode
// is a terminal answer from the vendor, not a Go error; see Err.
type SendOutcome struct {
	ErrCode        int64  `json:"errcode"`
	ErrMsg         string `json:"errmsg"`
	InvalidUser    string `json:"invaliduser,omitempty"`
	InvalidParty   string `json:"invalidparty,omitempty"`
	InvalidTag     string `json:"invalidtag,omitempty"`
	UnlicensedUser string `json:"unlicenseduser,omitempty"`
	MsgID          string `json:"msgid"`
	ResponseCode   string `json:"response_code,omitempty"`

	// Attempts is the number of POSTs made for this outcome: 1, or 2 when the
	// first one was answered with CodeInvalidCredential.
	Attempts int `json:"-"`
}

// OK reports whether the vendor accepted the message.
func (o *SendOutcome) OK() bool { return o.ErrCode == CodeOK }

// Err returns the vendor rejection as an error, or nil when accepted.
func (o *SendOutcome) Err() error {
	if o.OK() {
		return nil
	}
	return &VendorError{Code: o.ErrCode, Message: o.ErrMsg}
}

// Partial reports an accepted message with at least one recipient dropped.
func (o *SendOutcome) Partial() bool {
	return o.OK() && (o.InvalidUser != "" || o.InvalidParty != "" ||
		o.InvalidTag != "" || o.UnlicensedUser != "")
}

func (o *SendOutcome) InvalidUsers() []string    { return splitIDs(o.InvalidUser) }
func (o *SendOutcome) InvalidParties() []string  { return splitIDs(o.InvalidParty) }
func (o *SendOutcome) InvalidTags() []string     { return splitIDs(o.InvalidTag) }
func (o *SendOutcome) UnlicensedUsers() []string { return splitIDs(o.UnlicensedUser) }

// splitIDs splits the vendor's "|" separated id lists.
func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
