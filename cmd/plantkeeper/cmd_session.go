package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"plantkeeper/internal/core"
	"plantkeeper/internal/logging"
	"plantkeeper/internal/records"
	"plantkeeper/internal/scope"

	"github.com/spf13/cobra"
)

var (
	signinToken  string
	signinUserID string
	syncWatch    bool
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with an access token from the auth provider",
	Long: `Stores the session handed over by the auth provider and reloads every
collection for the signed-in account. The token is read from --token or,
when omitted, from PLANTKEEPER_ACCESS_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: runSignin,
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and continue as guest",
	Args:  cobra.NoArgs,
	RunE:  runSignout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity records are stored under",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh every collection from the backend",
	Long: `Refetches identifications, health records and the garden. With --watch the
command keeps running, follows sign-in and sign-out done by other processes
through the session file, and resyncs on every identity change.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	signinCmd.Flags().StringVar(&signinToken, "token", "", "Access token (JWT or opaque)")
	signinCmd.Flags().StringVar(&signinUserID, "user", "", "User ID, when the token does not carry one")
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep running and resync on identity changes")
}

// syncReport is the printed form of a refresh.
type syncReport struct {
	Namespace       scope.Namespace `json:"namespace"`
	Identifications int             `json:"identifications"`
	HealthRecords   int             `json:"healthRecords"`
	Garden          int             `json:"garden"`
}

func newSyncReport(ns scope.Namespace, s records.RefreshSummary) syncReport {
	return syncReport{
		Namespace:       ns,
		Identifications: s.Identifications,
		HealthRecords:   s.HealthRecords,
		Garden:          s.Garden,
	}
}

func printSync(w io.Writer, r syncReport) error {
	if jsonOutput {
		return printJSON(w, r)
	}
	_, err := fmt.Fprintf(w, "%s %s: %d identifications, %d health records, %d garden plants\n",
		headerStyle.Render("Synced"), r.Namespace, r.Identifications, r.HealthRecords, r.Garden)
	return err
}

func runSignin(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(signinToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("PLANTKEEPER_ACCESS_TOKEN"))
	}
	if token == "" {
		return fmt.Errorf("no access token: pass --token or set PLANTKEEPER_ACCESS_TOKEN")
	}

	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sum, err := app.SignIn(ctx, scope.Session{AccessToken: token, UserID: strings.TrimSpace(signinUserID)})
	if err != nil {
		return err
	}
	return printSync(cmd.OutOrStdout(), newSyncReport(app.Resolver.Namespace(), sum))
}

func runSignout(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sum, err := app.SignOut(ctx)
	if err != nil {
		return err
	}
	return printSync(cmd.OutOrStdout(), newSyncReport(app.Whoami(ctx).Namespace, sum))
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	who := app.Whoami(ctx)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, struct {
			Namespace     scope.Namespace `json:"namespace"`
			Authenticated bool            `json:"authenticated"`
			UserID        string          `json:"userId,omitempty"`
		}{who.Namespace, who.Authenticated, who.UserID})
	}
	state := warnStyle.Render("guest")
	if who.Authenticated {
		state = okStyle.Render("signed in")
	}
	fmt.Fprintf(out, "%s (%s)\n", who.Namespace, state)
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncWatch {
		return watchSync(cmd)
	}

	app, ctx, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sum := app.Sync(ctx)
	return printSync(cmd.OutOrStdout(), newSyncReport(app.Whoami(ctx).Namespace, sum))
}

// watchSync runs until interrupted, resyncing whenever the session file
// switches the active identity. --timeout bounds each refresh, not the watch.
func watchSync(cmd *cobra.Command) error {
	watchCfg := *cfg
	watchCfg.Session.Watch = true

	app, err := core.New(cmd.Context(), &watchCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.CoreError("close: %v", err)
		}
	}()

	changed := make(chan scope.Namespace, 1)
	unsubscribe := app.Resolver.Subscribe(func(_, updated scope.Namespace) {
		select {
		case changed <- updated:
		default:
		}
	})
	defer unsubscribe()

	refresh := func() error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		sum := app.Sync(ctx)
		return printSync(cmd.OutOrStdout(), newSyncReport(app.Whoami(ctx).Namespace, sum))
	}

	if err := refresh(); err != nil {
		return err
	}
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ns := <-changed:
			logging.SyncInfo("identity changed to %s, resyncing", ns)
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}
