package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/teemow/mailpilot/internal/mailbox"
)

const (
	fetchQuery = "Get my latest 10 emails. userId: %s"
	nextQuery  = "Get my next 10 emails using pageToken: %s. userId: %s"
	sendQuery  = "Send a new email to %s with the subject '%s' and the body instruction '%s'."
	replyQuery = "Reply to the email identified by %q with the following content: %s"

	replyExamples = 3
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive mail shell",
		Long: `Start an interactive shell. Besides free-form requests it understands:
  fetch  latest 10 emails
  next   the following page
  send   compose a new email
  reply  answer an email fetched earlier
  help   show help
  exit   quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			sh := newShell(a.newAgent(), a.store, a.cfg.UserID, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.run(cmd.Context())
		},
	}
}

// responder answers one user turn.
type responder interface {
	Respond(ctx context.Context, input string) (string, error)
}

// recordLister exposes the records of the last fetch.
type recordLister interface {
	Get() []mailbox.Record
}

type shellStyles struct {
	title  lipgloss.Style
	prompt lipgloss.Style
	info   lipgloss.Style
	errMsg lipgloss.Style
	dim    lipgloss.Style
}

func defaultStyles() shellStyles {
	return shellStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).BorderStyle(lipgloss.RoundedBorder()).Padding(0, 2),
		prompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		info:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		errMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// shell is the line-oriented chat loop.
type shell struct {
	agent     responder
	store     recordLister
	userID    string
	in        *bufio.Scanner
	out       io.Writer
	styles    shellStyles
	nextToken string

	// turnContext scopes one agent turn; the default cancels it on SIGINT.
	turnContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

func newShell(agent responder, store recordLister, userID string, in io.Reader, out io.Writer) *shell {
	return &shell{
		agent:  agent,
		store:  store,
		userID: userID,
		in:     bufio.NewScanner(in),
		out:    out,
		styles: defaultStyles(),
		turnContext: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

func (s *shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

// readLine prompts and reads one line. ok is false at end of input.
func (s *shell) readLine(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *shell) run(ctx context.Context) error {
	s.welcome()
	for {
		line, ok := s.readLine("\n" + s.styles.prompt.Render("mailpilot >") + " ")
		if !ok {
			s.goodbye()
			return s.in.Err()
		}
		input := strings.TrimSpace(line)

		switch strings.ToLower(input) {
		case "":
		case "fetch":
			s.fetch(ctx)
		case "next":
			s.next(ctx)
		case "send":
			s.send(ctx)
		case "reply":
			s.reply(ctx)
		case "help":
			s.help()
		case "exit", "quit", "q":
			s.goodbye()
			return nil
		default:
			if answer, ok := s.respond(ctx, input); ok {
				s.println("\n" + answer)
			}
		}
	}
}

// respond runs one turn, printing model failures instead of returning them.
func (s *shell) respond(ctx context.Context, query string) (string, bool) {
	turnCtx, cancel := s.turnContext(ctx)
	defer cancel()

	answer, err := s.agent.Respond(turnCtx, query)
	if err != nil {
		s.println(s.styles.errMsg.Render("Error: " + err.Error()))
		return "", false
	}
	return answer, true
}

func (s *shell) fetch(ctx context.Context) {
	s.println(s.styles.info.Render("Fetching your latest emails..."))
	s.page(ctx, fmt.Sprintf(fetchQuery, s.userID), "Use 'next' command to see them.")
}

func (s *shell) next(ctx context.Context) {
	if s.nextToken == "" {
		s.println("No more emails available. Use 'fetch' to get the latest emails first.")
		return
	}
	s.println(s.styles.info.Render("Fetching next page of emails..."))
	s.page(ctx, fmt.Sprintf(nextQuery, s.nextToken, s.userID), "Use 'next' command to continue.")
}

// page runs a listing turn and remembers the continuation token.
func (s *shell) page(ctx context.Context, query, moreHint string) {
	answer, ok := s.respond(ctx, query)
	if !ok {
		return
	}
	if tok, found := mailbox.ExtractPageToken(answer); found && tok != "null" {
		s.nextToken = tok
		s.println(s.styles.info.Render("More emails available. " + moreHint))
	} else {
		s.nextToken = ""
		s.println(s.styles.dim.Render("No more emails to fetch."))
	}
	s.println("\n" + answer)
}

// ask prompts for a required value; ok is false when it is empty or input
// ended.
func (s *shell) ask(prompt, missing string) (string, bool) {
	v, ok := s.readLine(prompt)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		s.println(s.styles.errMsg.Render(missing))
		return "", false
	}
	return v, true
}

func (s *shell) send(ctx context.Context) {
	s.println(s.styles.info.Render("Send a new email"))

	recipient, ok := s.ask("Recipient email address: ", "Recipient email is required!")
	if !ok {
		return
	}
	subject, ok := s.ask("Subject line: ", "Subject is required!")
	if !ok {
		return
	}
	instruction, ok := s.ask("What should the email say? ", "Email content instruction is required!")
	if !ok {
		return
	}

	s.println(s.styles.info.Render("Sending email..."))
	if answer, ok := s.respond(ctx, fmt.Sprintf(sendQuery, recipient, subject, instruction)); ok {
		s.println("\n" + answer)
	}
}

func (s *shell) reply(ctx context.Context) {
	s.println(s.styles.info.Render("Reply to an email"))

	records := s.store.Get()
	if len(records) == 0 {
		s.println(s.styles.errMsg.Render("No emails found in memory! Please use 'fetch' or 'next' to load emails first."))
		return
	}

	s.printf("Found %d emails in memory. Here are some examples:\n", len(records))
	for i, rec := range records[:min(replyExamples, len(records))] {
		s.printf("   %d. From: %s | Subject: %s | ID: %s\n", i+1, rec.From, truncate(rec.Subject, 50), rec.ID)
	}
	s.println(s.styles.dim.Render("Tip: combine identifiers with commas for better matching, e.g. 'ann@corp.example, Q3 report'"))

	identifier, ok := s.ask("Email identifier(s) (sender, subject or ID): ", "Email identifier is required!")
	if !ok {
		return
	}
	instruction, ok := s.ask("What should your reply say? ", "Reply content instruction is required!")
	if !ok {
		return
	}

	s.println(s.styles.info.Render("Sending reply..."))
	if answer, ok := s.respond(ctx, fmt.Sprintf(replyQuery, identifier, instruction)); ok {
		s.println("\n" + answer)
	}
}

func (s *shell) welcome() {
	s.println(s.styles.title.Render("mailpilot " + version))
	s.println(`
Available commands:
  fetch    Get your latest 10 emails
  next     Get the next page of emails
  send     Send a new email
  reply    Reply to an email from memory
  help     Show this help message
  exit     Exit the application

Anything else is sent to the assistant as a request.`)
}

func (s *shell) help() {
	s.println(`fetch
   Retrieves your latest 10 emails and keeps them in memory for replies.

next
   Gets the next page of emails, after a fetch that reported more.

send
   Prompts for a recipient, a subject and what the email should say.

reply
   Replies to an email in memory. Identify it by sender, subject words or
   its ID; several identifiers can be separated by commas.

exit, quit, q
   Leaves the shell.`)
}

func (s *shell) goodbye() {
	s.println("\nGoodbye!")
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
