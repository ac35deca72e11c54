package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"familytree/client"
	"familytree/config"
	"familytree/tree"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	APIURL      string
	SessionPath string
	Verbose     bool
}

// cliApp is built once per invocation and shared by every command.
type cliApp struct {
	opts    globalOptions
	log     *logrus.Logger
	session *client.Session
	api     *client.Client
	parent  tree.ContextParent
	out     io.Writer
	in      *bufio.Reader
}

// terminalNavigator turns the client's redirects into instructions on the
// terminal. An expired session is also forgotten.
type terminalNavigator struct {
	app *cliApp
}

func (n terminalNavigator) Redirect(path string) {
	switch path {
	case client.LoginPath:
		if err := n.app.session.SignOut(); err != nil {
			n.app.log.WithError(err).Warn("failed to clear session")
		}
		fmt.Fprintln(n.app.out, "Your session has expired. Sign in again with: familytree login --token <token>")
	case client.UpgradePath:
		fmt.Fprintln(n.app.out, "This feature needs an active subscription. Upgrade your plan to continue.")
	default:
		fmt.Fprintf(n.app.out, "Continue at %s\n", path)
	}
}

func (a *cliApp) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.in = bufio.NewReader(cmd.InOrStdin())

	a.log = config.GetLogrusInstance()
	a.log.SetOutput(cmd.ErrOrStderr())
	if a.opts.Verbose {
		a.log.SetLevel(logrus.DebugLevel)
	} else if os.Getenv("LOG_LEVEL") == "" {
		a.log.SetLevel(logrus.ErrorLevel)
	}

	a.session = client.NewSession(client.FileSessionStore{Path: a.opts.SessionPath})
	if err := a.session.Init(); err != nil {
		return err
	}
	a.api = client.New(a.opts.APIURL, a.session, terminalNavigator{app: a}, a.log)
	return a.loadParent()
}

// prompt prints question and reads one line of input without its newline.
func (a *cliApp) prompt(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRootCmd() *cobra.Command {
	app := &cliApp{}

	cmd := &cobra.Command{
		Use:           "familytree",
		Short:         "Build and browse your family tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&app.opts.APIURL, "api", config.GetAPIBaseURL(), "tree store API base URL")
	cmd.PersistentFlags().StringVar(&app.opts.SessionPath, "session", config.GetSessionPath(), "session file")
	cmd.PersistentFlags().BoolVarP(&app.opts.Verbose, "verbose", "v", false, "log requests")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newMembersCmd(app))
	cmd.AddCommand(newMemberCmd(app))
	cmd.AddCommand(newGraphCmd(app))
	return cmd
}

func Execute() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func main() {
	Execute()
}
