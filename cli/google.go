// ABOUTME: Google account, calendar and mail CLI commands
// ABOUTME: Connect, disconnect, sync, scan, status, login and logout
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/session"
)

const googleSetupHint = "set google_client_id and google_client_secret in the config file or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET"

func newCalendarCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Google Calendar integration",
	}
	cmd.AddCommand(newCalendarConnectCommand(opts))
	cmd.AddCommand(newCalendarDisconnectCommand(opts))
	cmd.AddCommand(newCalendarSyncCommand(opts))
	cmd.AddCommand(newCalendarStatusCommand(opts))
	return cmd
}

func newCalendarConnectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Grant calendar access",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			if !opts.cfg.GoogleConfigured() {
				return fmt.Errorf("google client not configured: %s", googleSetupHint)
			}
			if !svc.ConnectGoogle(cmd.Context(), session.ServiceCalendar) {
				return fmt.Errorf("calendar connection failed: %v", svc.LastError())
			}
			success(cmd.OutOrStdout(), "Calendar connected")
			return nil
		}),
	}
}

func newCalendarDisconnectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Stop syncing the calendar; the Google session is kept",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			svc.DisconnectGoogle(session.ServiceCalendar)
			success(cmd.OutOrStdout(), "Calendar disconnected")
			return nil
		}),
	}
}

func newCalendarSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import events from the primary calendar",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			res, err := svc.SyncCalendar(cmd.Context())
			if err != nil {
				return fmt.Errorf("calendar sync failed: %w", err)
			}
			if res.Skipped {
				warning(out, "Sync skipped: %s", res.SkipReason)
				return nil
			}
			success(out, "Synced %d event(s): %d imported, %d updated, %d ignored (%s)",
				res.Fetched, res.Imported, res.Updated, res.Ignored, svc.MergePolicy())
			return nil
		}),
	}
}

func newCalendarStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show integration and sync state",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			st := svc.GetIntegrationStatus()
			last := svc.Cache().SyncState()

			title(out, "Google integration")
			printf(out, "Account:  %s\n", orDash(st.Email))
			printf(out, "Calendar: %s\n", connectedLabel(st.Calendar))
			printf(out, "Mail:     %s\n", connectedLabel(st.Mail))
			printf(out, "Policy:   %s\n", svc.MergePolicy())

			printf(out, "\n")
			title(out, "Last sync")
			printf(out, "Status:   %s\n", syncStatusLabel(last))
			if last.LastSyncTime != nil {
				printf(out, "At:       %s\n", last.LastSyncTime.Local().Format(time.DateTime))
				printf(out, "Imported: %d, updated: %d\n", last.Imported, last.Updated)
			}
			if err := svc.LastError(); err != nil {
				printf(out, "Error:    %s\n", errorStyle.Render(err.Error()))
			}
			if !opts.cfg.GoogleConfigured() {
				printf(out, "\n%s\n", mutedStyle.Render("Google client not configured: "+googleSetupHint))
			}
			return nil
		}),
	}
}

func newMailCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Gmail last-contact tracking",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "connect",
		Short: "Grant read-only mail access",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			if !opts.cfg.GoogleConfigured() {
				return fmt.Errorf("google client not configured: %s", googleSetupHint)
			}
			if !svc.ConnectGoogle(cmd.Context(), session.ServiceMail) {
				return fmt.Errorf("mail connection failed: %v", svc.LastError())
			}
			success(cmd.OutOrStdout(), "Mail connected")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "disconnect",
		Short: "Stop scanning mail; the Google session is kept",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			svc.DisconnectGoogle(session.ServiceMail)
			success(cmd.OutOrStdout(), "Mail disconnected")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Update last-contact dates from recent conversations",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			res, err := svc.ScanMail(cmd.Context())
			if err != nil {
				return fmt.Errorf("mail scan failed: %w", err)
			}
			if res.Skipped {
				warning(out, "Scan skipped: %s", res.SkipReason)
				return nil
			}
			success(out, "Scanned %d message(s): %d high-signal, %d contact(s) matched, %d updated",
				res.Scanned, res.HighSignal, res.Matched, res.Updated)
			return nil
		}),
	})
	return cmd
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and connect every service",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			if !opts.cfg.GoogleConfigured() {
				return fmt.Errorf("google client not configured: %s", googleSetupHint)
			}
			profile := svc.LoginWithGoogle(cmd.Context())
			if profile == nil {
				return fmt.Errorf("login failed: %v", svc.LastError())
			}
			success(cmd.OutOrStdout(), "Signed in as %s <%s>", profile.FullName(), profile.Email)
			return nil
		}),
	}
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the Google session; local data is kept",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			if err := svc.Logout(cmd.Context()); err != nil {
				warning(cmd.OutOrStdout(), "Token revocation failed: %v", err)
			}
			success(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}
}

func connectedLabel(ok bool) string {
	if ok {
		return okStyle.Render("connected")
	}
	return mutedStyle.Render("not connected")
}

func syncStatusLabel(st models.SyncState) string {
	switch st.Status {
	case models.SyncStatusError:
		return errorStyle.Render("error: " + st.ErrorMessage)
	case models.SyncStatusSyncing:
		return warnStyle.Render(st.Status)
	}
	return st.Status
}
