package commands

import (
	"errors"
	"fmt"
	"strings"

	qurpc "quantusur/pkg/api/qurpc/v1"
	"quantusur/pkg/app"
	"quantusur/pkg/exporter"
	"quantusur/pkg/session"
	"quantusur/pkg/types"

	"github.com/spf13/cobra"
)

var scanSession string

var scanCmd = &cobra.Command{
	Use:   "scan --session <id> [part...]",
	Short: "Feed scanned parts into a persistent session",
	Long: `Add parts to a named scan session. Parts survive between invocations, so a
payload can be collected frame by frame. Prints progress, or the hex payload once
the session completes (the session is then removed).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := readParts(cmd, args)
		if err != nil {
			return err
		}

		cli, err := remoteClient()
		if err != nil {
			return err
		}
		var st *session.Status
		if cli != nil {
			defer cli.Close()
			resp, err := cli.Codec.Scan(cmd.Context(), &qurpc.ScanRequest{Session: scanSession, Parts: parts})
			if err != nil {
				return fmt.Errorf("remote scan failed: %w", err)
			}
			st = statusFromResponse(scanSession, resp)
		} else {
			a, err := app.NewApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize qur: %w", err)
			}
			defer a.Close()
			if st, err = a.Sessions.Scan(cmd.Context(), types.SessionID(scanSession), parts...); err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
		}

		exporter.PrintStatus(st, cmd.OutOrStdout())
		return nil
	},
}

// statusFromResponse 把远端响应还原成本地的 Status，便于统一打印
func statusFromResponse(id string, resp *qurpc.ScanResponse) *session.Status {
	st := &session.Status{
		Session:  types.SessionID(id),
		Type:     resp.Type,
		Added:    resp.Added,
		Stored:   resp.Stored,
		Known:    resp.Known,
		Expected: resp.Expected,
		Progress: resp.Progress,
		Complete: resp.Complete,
		Payload:  resp.Payload,
	}
	// 服务端格式为 "part N: reason"
	for i, r := range resp.Rejected {
		rej := session.Rejection{Index: i, Err: errors.New(r)}
		var n int
		if head, reason, ok := strings.Cut(r, ": "); ok {
			if _, err := fmt.Sscanf(head, "part %d", &n); err == nil {
				rej = session.Rejection{Index: n - 1, Err: errors.New(reason)}
			}
		}
		st.Rejected = append(st.Rejected, rej)
	}
	return st
}

var resetCmd = &cobra.Command{
	Use:   "reset <session>",
	Short: "Discard a scan session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := remoteClient()
		if err != nil {
			return err
		}
		if cli != nil {
			defer cli.Close()
			if _, err := cli.Codec.Reset(cmd.Context(), &qurpc.ResetRequest{Session: args[0]}); err != nil {
				return fmt.Errorf("remote reset failed: %w", err)
			}
		} else {
			a, err := app.NewApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize qur: %w", err)
			}
			defer a.Close()
			if err := a.Sessions.Reset(cmd.Context(), types.SessionID(args[0])); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "session %s discarded\n", args[0])
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanSession, "session", "s", "", "Scan session id")
	_ = scanCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(scanCmd, resetCmd)
}
