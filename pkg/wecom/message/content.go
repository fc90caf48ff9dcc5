package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the vendor msgtype.
type Type string

const (
	TypeText     Type = "text"
	TypeImage    Type = "image"
	TypeVoice    Type = "voice"
	TypeVideo    Type = "video"
	TypeFile     Type = "file"
	TypeTextCard Type = "textcard"
	TypeNews     Type = "news"
	TypeMarkdown Type = "markdown"
)

// MaxNewsArticles is the vendor limit for a single news message.
const MaxNewsArticles = 8

var (
	ErrEmptyContent   = errors.New("message: content is empty")
	ErrNewsArticles   = fmt.Errorf("message: news needs between 1 and %d articles", MaxNewsArticles)
	ErrUnknownMsgType = errors.New("message: unknown msgtype")
)

// Content is the type-specific part of a message.
type Content interface {
	Type() Type
	validate() error
	apply(m *Message)
}

type Text struct {
	Content string `json:"content"`
}

func (Text) Type() Type { return TypeText }
func (c Text) validate() error { return requireNonEmpty(c.Content) }
func (c Text) apply(m *Message) { m.Text = &c }

type Image struct {
	MediaID string `json:"media_id"`
}

func (Image) Type() Type { return TypeImage }
func (c Image) validate() error { return requireNonEmpty(c.MediaID) }
func (c Image) apply(m *Message) { m.Image = &c }

type Voice struct {
	MediaID string `json:"media_id"`
}

func (Voice) Type() Type { return TypeVoice }
func (c Voice) validate() error { return requireNonEmpty(c.MediaID) }
func (c Voice) apply(m *Message) { m.Voice = &c }

type Video struct {
	MediaID     string `json:"media_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

func (Video) Type() Type { return TypeVideo }
func (c Video) validate() error { return requireNonEmpty(c.MediaID) }
func (c Video) apply(m *Message) { m.Video = &c }

type File struct {
	MediaID string `json:"media_id"`
}

func (File) Type() Type { return TypeFile }
func (c File) validate() error { return requireNonEmpty(c.MediaID) }
func (c File) apply(m *Message) { m.File = &c }

// TextCard renders as a card with a link; Description accepts the vendor's
// limited div markup.
type TextCard struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	BtnTxt      string `json:"btntxt,omitempty"`
}

func (TextCard) Type() Type { return TypeTextCard }

func (c TextCard) validate() error {
	if c.Title == "" || c.Description == "" || c.URL == "" {
		return ErrEmptyContent
	}
	return nil
}

func (c TextCard) apply(m *Message) { m.TextCard = &c }

type Article struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	PicURL      string `json:"picurl,omitempty"`
	AppID       string `json:"appid,omitempty"`
	PagePath    string `json:"pagepath,omitempty"`
}

type News struct {
	Articles []Article `json:"articles"`
}

func (News) Type() Type { return TypeNews }

func (c News) validate() error {
	if len(c.Articles) == 0 || len(c.Articles) > MaxNewsArticles {
		return ErrNewsArticles
	}
	for _, a := range c.Articles {
		if a.Title == "" {
			return ErrEmptyContent
		}
	}
	return nil
}

func (c News) apply(m *Message) { m.News = &c }

type Markdown struct {
	Content string `json:"content"`
}

func (Markdown) Type() Type { return TypeMarkdown }
func (c Markdown) validate() error { return requireNonEmpty(c.Content) }
func (c Markdown) apply(m *Message) { m.Markdown = &c }

func requireNonEmpty(s string) error {
	if s == "" {
		return ErrEmptyContent
	}
	return nil
}

// ParseType validates a msgtype name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeText, TypeImage, TypeVoice, TypeVideo, TypeFile, TypeTextCard, TypeNews, TypeMarkdown:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMsgType, s)
	}
}

// DecodeContent decodes the JSON body of a content object of type t, in the
// same shape the vendor expects under the msgtype key.
func DecodeContent(t Type, raw json.RawMessage) (Content, error) {
	switch t {
	case TypeText:
		return decodeAs[Text](raw)
	case TypeImage:
		return decodeAs[Image](raw)
	case TypeVoice:
		return decodeAs[Voice](raw)
	case TypeVideo:
		return decodeAs[Video](raw)
	case TypeFile:
		return decodeAs[File](raw)
	case TypeTextCard:
		return decodeAs[TextCard](raw)
	case TypeNews:
		return decodeAs[News](raw)
	case TypeMarkdown:
		return decodeAs[Markdown](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMsgType, t)
	}
}

func decodeAs[T Content](raw json.RawMessage) (Content, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("message: invalid %s content: %w", v.Type(), err)
	}
	return v, nil
}
