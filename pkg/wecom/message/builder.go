// Package message builds the JSON payloads accepted by the WeCom
// message/send endpoint.
package message

import (
	"errors"
	"strings"
)

// DefaultDuplicateCheckInterval is the vendor default, in seconds.
const DefaultDuplicateCheckInterval = 1800

// AllUsers addresses every member visible to the application.
const AllUsers = "@all"

var (
	ErrNoRecipients = errors.New("message: at least one user, party or tag is required")
	ErrNoAgent      = errors.New("message: agent id is required")
)

// Message is a ready-to-send payload. Exactly one content field is set,
// matching MsgType.
type Message struct {
	ToUser  string `json:"touser"`
	ToParty string `json:"toparty"`
	ToTag   string `json:"totag"`
	MsgType Type   `json:"msgtype"`
	AgentID int64  `json:"agentid"`

	Text     *Text     `json:"text,omitempty"`
	Image    *Image    `json:"image,omitempty"`
	Voice    *Voice    `json:"voice,omitempty"`
	Video    *Video    `json:"video,omitempty"`
	File     *File     `json:"file,omitempty"`
	TextCard *TextCard `json:"textcard,omitempty"`
	News     *News     `json:"news,omitempty"`
	Markdown *Markdown `json:"markdown,omitempty"`

	Safe                   int `json:"safe"`
	EnableIDTrans          int `json:"enable_id_trans"`
	EnableDuplicateCheck   int `json:"enable_duplicate_check"`
	DuplicateCheckInterval int `json:"duplicate_check_interval"`
}

// Builder collects recipients and delivery flags. The zero value is not
// usable; call NewBuilder.
type Builder struct {
	users   []string
	parties []string
	tags    []string
	agentID int64

	safe        int
	idTrans     bool
	dupCheck    bool
	dupInterval int
}

func NewBuilder() *Builder {
	return &Builder{dupInterval: DefaultDuplicateCheckInterval}
}

// ToUsers adds user ids. Use AllUsers to broadcast.
func (b *Builder) ToUsers(ids ...string) *Builder {
	b.users = appendIDs(b.users, ids)
	return b
}

// ToParties adds department ids.
func (b *Builder) ToParties(ids ...string) *Builder {
	b.parties = appendIDs(b.parties, ids)
	return b
}

// ToTags adds tag ids.
func (b *Builder) ToTags(ids ...string) *Builder {
	b.tags = appendIDs(b.tags, ids)
	return b
}

func (b *Builder) FromAgent(id int64) *Builder {
	b.agentID = id
	return b
}

// Safe sets the confidentiality level: 0 shareable, 1 confidential,
// 2 watermarked where supported.
func (b *Builder) Safe(level int) *Builder {
	b.safe = level
	return b
}

func (b *Builder) EnableIDTrans(on bool) *Builder {
	b.idTrans = on
	return b
}

func (b *Builder) EnableDuplicateCheck(on bool) *Builder {
	b.dupCheck = on
	return b
}

// DuplicateCheckInterval sets the duplicate window in seconds. Non-positive
// values restore the default.
func (b *Builder) DuplicateCheckInterval(seconds int) *Builder {
	if seconds <= 0 {
		seconds = DefaultDuplicateCheckInterval
	}
	b.dupInterval = seconds
	return b
}

// Build validates the recipients and content and returns the payload.
func (b *Builder) Build(c Content) (*Message, error) {
	if len(b.users) == 0 && len(b.parties) == 0 && len(b.tags) == 0 {
		return nil, ErrNoRecipients
	}
	if b.agentID == 0 {
		return nil, ErrNoAgent
	}
	if c == nil {
		return nil, ErrEmptyContent
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	m := &Message{
		ToUser:                 strings.Join(b.users, "|"),
		ToParty:                strings.Join(b.parties, "|"),
		ToTag:                  strings.Join(b.tags, "|"),
		MsgType:                c.Type(),
		AgentID:                b.agentID,
		Safe:                   b.safe,
		EnableIDTrans:          boolToInt(b.idTrans),
		EnableDuplicateCheck:   boolToInt(b.dupCheck),
		DuplicateCheckInterval: b.dupInterval,
	}
	c.apply(m)
	return m, nil
}

// Content returns the content carried by m, or nil.
func (m *Message) Content() Content {
	switch {
	case m.Text != nil:
		return *m.Text
	case m.Image != nil:
		return *m.Image
	case m.Voice != nil:
		return *m.Voice
	case m.Video != nil:
		return *m.Video
	case m.File != nil:
		return *m.File
	case m.TextCard != nil:
		return *m.TextCard
	case m.News != nil:
		return *m.News
	case m.Markdown != nil:
		return *m.Markdown
	default:
		return nil
	}
}

func appendIDs(dst, ids []string) []string {
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			dst = append(dst, id)
		}
	}
	return dst
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
