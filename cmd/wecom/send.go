package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom/message"
)

const sendLongDesc string = `Send an application message as the selected profile.

The message body is taken from the arguments, or from stdin when there are
none. For textcard the body becomes the card description; image, voice,
video and file messages take --media-id instead of a body.

Examples:
  wecom send --to-user robin,tom "deploy finished"
  wecom send --to-party 2 --type markdown < notes.md
  wecom send --to-user @all --type textcard --title Incident --url https://status.example.com "API degraded"
  wecom send --to-tag oncall --type file --media-id 3a8asd892asd8asd`

type sendOptions struct {
	toUsers   []string
	toParties []string
	toTags    []string

	msgType string
	title   string
	url     string
	btnTxt  string
	mediaID string

	safe                   bool
	enableIDTrans          bool
	duplicateCheck         bool
	duplicateCheckInterval int
	jsonOut                bool
}

func newSendCmd(opts *globalOptions) *cobra.Command {
	so := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send [body...]",
		Short: "Send a message",
		Long:  sendLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args, " ")
			if body == "" && needsBody(message.Type(so.msgType)) {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				body = strings.TrimRight(string(b), "\n")
			}

			content, err := so.content(body)
			if err != nil {
				return err
			}

			agent, p, err := opts.agent()
			if err != nil {
				return err
			}

			safe := 0
			if so.safe {
				safe = 1
			}
			msg, err := message.NewBuilder().
				ToUsers(so.toUsers...).
				ToParties(so.toParties...).
				ToTags(so.toTags...).
				FromAgent(p.AgentID).
				Safe(safe).
				EnableIDTrans(so.enableIDTrans).
				EnableDuplicateCheck(so.duplicateCheck).
				DuplicateCheckInterval(so.duplicateCheckInterval).
				Build(content)
			if err != nil {
				return err
			}

			outcome, err := agent.Send(cmd.Context(), msg)
			if err != nil {
				return err
			}
			slogx.FromContext(cmd.Context()).Debug("send finished", "attempts", outcome.Attempts)

			out := cmd.OutOrStdout()
			if so.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(outcome); err != nil {
					return err
				}
			} else if outcome.OK() {
				fmt.Fprintf(out, "sent msgid=%s\n", outcome.MsgID)
			}

			if !outcome.OK() {
				return outcome.Err()
			}
			printRejected(cmd.ErrOrStderr(), "users", outcome.InvalidUsers())
			printRejected(cmd.ErrOrStderr(), "parties", outcome.InvalidParties())
			printRejected(cmd.ErrOrStderr(), "tags", outcome.InvalidTags())
			printRejected(cmd.ErrOrStderr(), "unlicensed users", outcome.UnlicensedUsers())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&so.toUsers, "to-user", nil, "User IDs (comma separated, @all for everyone)")
	f.StringSliceVar(&so.toParties, "to-party", nil, "Department IDs")
	f.StringSliceVar(&so.toTags, "to-tag", nil, "Tag IDs")
	f.StringVarP(&so.msgType, "type", "t", string(message.TypeText), "Message type: text, markdown, textcard, image, voice, video, file")
	f.StringVar(&so.title, "title", "", "Title (textcard, video)")
	f.StringVar(&so.url, "url", "", "Link (textcard)")
	f.StringVar(&so.btnTxt, "btntxt", "", "Button text (textcard)")
	f.StringVar(&so.mediaID, "media-id", "", "Uploaded media ID (image, voice, video, file)")
	f.BoolVar(&so.safe, "safe", false, "Mark the message confidential")
	f.BoolVar(&so.enableIDTrans, "id-trans", false, "Enable ID translation")
	f.BoolVar(&so.duplicateCheck, "duplicate-check", false, "Drop duplicates sent within the check interval")
	f.IntVar(&so.duplicateCheckInterval, "duplicate-check-interval", message.DefaultDuplicateCheckInterval, "Duplicate check interval in seconds")
	f.BoolVar(&so.jsonOut, "json", false, "Print the vendor response as JSON")

	return cmd
}

func needsBody(t message.Type) bool {
	switch t {
	case message.TypeImage, message.TypeVoice, message.TypeVideo, message.TypeFile:
		return false
	default:
		return true
	}
}

// content maps the flags and body onto a message content for so.msgType.
func (so *sendOptions) content(body string) (message.Content, error) {
	t, err := message.ParseType(so.msgType)
	if err != nil {
		return nil, err
	}

	switch t {
	case message.TypeText:
		return message.Text{Content: body}, nil
	case message.TypeMarkdown:
		return message.Markdown{Content: body}, nil
	case message.TypeTextCard:
		return message.TextCard{Title: so.title, Description: body, URL: so.url, BtnTxt: so.btnTxt}, nil
	case message.TypeImage:
		return message.Image{MediaID: so.mediaID}, nil
	case message.TypeVoice:
		return message.Voice{MediaID: so.mediaID}, nil
	case message.TypeVideo:
		return message.Video{MediaID: so.mediaID, Title: so.title, Description: body}, nil
	case message.TypeFile:
		return message.File{MediaID: so.mediaID}, nil
	default:
		return nil, errors.New("news messages are not supported from the command line")
	}
}

func printRejected(w io.Writer, what string, ids []string) {
	if len(ids) > 0 {
		fmt.Fprintf(w, "warning: rejected %s: %s\n", what, strings.Join(ids, ", "))
	}
}
