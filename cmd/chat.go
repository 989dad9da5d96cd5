package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-node/internal/chat"
	"github.com/nextlevelbuilder/goclaw-node/pkg/protocol"
)

const defaultSessionKey = "main"

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withTransport runs fn against a chat transport on a fresh operator session.
func withTransport(ctx context.Context, fn func(t chat.Transport) error) error {
	c, err := dialOperator(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(chat.NewGatewayTransport(c))
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Operator chat commands",
	}
	cmd.AddCommand(chatSendCmd(), chatHistoryCmd(), chatSessionsCmd(), chatAbortCmd(), chatHealthCmd(), chatEventsCmd())
	return cmd
}

func chatSendCmd() *cobra.Command {
	var (
		session  string
		thinking string
		key      string
		attach   []string
	)
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			atts, err := loadAttachments(attach)
			if err != nil {
				return err
			}
			if key == "" {
				key = uuid.NewString()
			}
			return withTransport(cmd.Context(), func(t chat.Transport) error {
				res, err := t.SendMessage(cmd.Context(), chat.SendRequest{
					SessionKey:     session,
					Message:        strings.Join(args, " "),
					Thinking:       thinking,
					IdempotencyKey: key,
					Attachments:    atts,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", defaultSessionKey, "session key")
	cmd.Flags().StringVar(&thinking, "thinking", "", "thinking level")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "idempotency key (default: random UUID)")
	cmd.Flags().StringArrayVarP(&attach, "attach", "a", nil, "attach a file (repeatable)")
	return cmd
}

// loadAttachments reads files as base64 chat attachments.
func loadAttachments(paths []string) ([]protocol.ChatAttachment, error) {
	var out []protocol.ChatAttachment
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		mt := mime.TypeByExtension(filepath.Ext(p))
		if mt == "" {
			mt = http.DetectContentType(data)
		}
		kind := "file"
		if strings.HasPrefix(mt, "image/") {
			kind = "image"
		}
		out = append(out, protocol.ChatAttachment{
			Type:     kind,
			MimeType: mt,
			FileName: filepath.Base(p),
			Content:  base64.StdEncoding.EncodeToString(data),
		})
	}
	return out, nil
}

func chatHistoryCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a session's chat history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTransport(cmd.Context(), func(t chat.Transport) error {
				h, err := t.RequestHistory(cmd.Context(), session)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), h)
			})
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", defaultSessionKey, "session key")
	return cmd
}

func chatSessionsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lim *int
			if cmd.Flags().Changed("limit") {
				lim = &limit
			}
			return withTransport(cmd.Context(), func(t chat.Transport) error {
				res, err := t.ListSessions(cmd.Context(), lim)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of sessions")
	return cmd
}

func chatAbortCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "abort <runId>",
		Short: "Abort a running chat run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransport(cmd.Context(), func(t chat.Transport) error {
				return t.AbortRun(cmd.Context(), session, args[0])
			})
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", defaultSessionKey, "session key")
	return cmd
}

func chatHealthCmd() *cobra.Command {
	var timeoutMs int
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTransport(cmd.Context(), func(t chat.Transport) error {
				ok, err := t.RequestHealth(cmd.Context(), timeoutMs)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]bool{"ok": ok})
			})
		},
	}
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 5000, "health request timeout in milliseconds")
	return cmd
}

type eventLine struct {
	Kind     string                     `json:"kind"`
	HealthOK *bool                      `json:"healthOk,omitempty"`
	Chat     *protocol.ChatEventPayload  `json:"chat,omitempty"`
	Agent    *protocol.AgentEventPayload `json:"agent,omitempty"`
}

func toEventLine(ev chat.Event) eventLine {
	line := eventLine{Kind: ev.Kind.String(), Chat: ev.Chat, Agent: ev.Agent}
	if ev.Kind == chat.EventHealth {
		ok := ev.HealthOK
		line.HealthOK = &ok
	}
	return line
}

func chatEventsCmd() *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream chat, agent and health events as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withTransport(ctx, func(t chat.Transport) error {
				if err := t.SetActiveSessionKey(ctx, session); err != nil {
					return err
				}
				events, err := t.Events(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				for ev := range events {
					if err := enc.Encode(toEventLine(ev)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", defaultSessionKey, "session key")
	return cmd
}
