package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wandering-ai/wecom-agent/internal/profile"
)

const loginLongDesc string = `Store the credentials of a WeCom application as a profile.

Missing values are prompted for. The secret is read without echo when stdin
is a terminal, or as the next line when it is piped. Unless --no-verify is
given, an access token is fetched to prove the credentials work.

Examples:
  wecom login
  wecom login -p ops --corp-id ww1234 --agent-id 1000002
  printf 'ww1234\n1000002\n%s\n' "$SECRET" | wecom login`

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var (
		corpID   string
		agentID  int64
		baseURL  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store application credentials",
		Long:  loginLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if corpID == "" {
				if corpID, err = prompt(in, out, "Corp ID: "); err != nil {
					return err
				}
			}
			if agentID == 0 {
				s, err := prompt(in, out, "Agent ID: ")
				if err != nil {
					return err
				}
				if agentID, err = strconv.ParseInt(s, 10, 64); err != nil || agentID <= 0 {
					return fmt.Errorf("agent id must be a positive integer, got %q", s)
				}
			}

			secret, err := readSecret(cmd.InOrStdin(), in, out)
			if err != nil {
				return err
			}

			p := profile.Profile{CorpID: corpID, AgentID: agentID, Secret: secret, BaseURL: baseURL}

			if !noVerify {
				if err := newAgent(p).RefreshCredential(cmd.Context(), 0); err != nil {
					return fmt.Errorf("verifying credentials: %w", err)
				}
			}

			mgr, err := opts.manager()
			if err != nil {
				return err
			}

			name := opts.profile
			if name == "" {
				name = profile.DefaultName
			}
			if err := mgr.Set(name, p); err != nil {
				return err
			}

			fmt.Fprintf(out, "Stored profile %q (corp %s, agent %d) in %s\n", name, corpID, agentID, mgr.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&corpID, "corp-id", "", "Corp ID")
	cmd.Flags().Int64Var(&agentID, "agent-id", 0, "Application agent ID")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API root, for private deployments")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip fetching a token to check the credentials")

	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)

	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	if line == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.TrimSuffix(label, ": "))
	}

	return line, nil
}

// readSecret reads the secret without echo from a terminal, otherwise as
// the next line of buffered.
func readSecret(raw io.Reader, buffered *bufio.Reader, out io.Writer) (string, error) {
	if f, ok := raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Secret: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
		return "", errors.New("secret cannot be empty")
	}

	return prompt(buffered, out, "Secret: ")
}
