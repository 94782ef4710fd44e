package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/mailpilot/internal/config"
)

// rootCmd represents the base command for the mailpilot application
var rootCmd = &cobra.Command{
	Use:   "mailpilot",
	Short: "A command-line mail assistant driven by a language model",
	Long: `mailpilot reads, summarizes and answers your mail through a language
model that decides when to fetch messages and when to send one.

It can run as:
  - An interactive shell (default)
  - A one-shot question with 'ask'
  - An MCP (Model Context Protocol) server exposing fetchEmails and sendEmail`,
	SilenceUsage: true,
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath  string
	debug       bool
	backend     string
	userID      string
	metricsAddr string
}

var flags globalFlags

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailpilot version %s\n" .Version}}`)

	// If no subcommand is provided, start the interactive shell
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultConfigPath(), "Path to the YAML configuration file")
	pf.BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.backend, "backend", "", "Mailbox backend: gmail or imap (overrides the config file)")
	pf.StringVar(&flags.userID, "user", "", "User id passed to fetchEmails (overrides the config file)")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, for example 127.0.0.1:9090")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
