package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/warikan/internal/service"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	Server  string
	GroupID string
	Timeout time.Duration
}

// ReconcileReport is the output of the reconcile command.
type ReconcileReport struct {
	GroupID   string           `json:"group_id"`
	Kept      int              `json:"kept"`
	Inserted  int              `json:"inserted"`
	Deleted   int              `json:"deleted"`
	Transfers []RemoteTransfer `json:"transfers"`
}

type RemoteTransfer struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute a group's settlements on a server",
		Long: `Ask a warikan server to recompute the settlements of a group from its
current payments. Settlements whose transfer is unchanged keep their status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&opts.GroupID, "group", "", "group ID")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func runReconcile(rootOpts *RootOptions, opts *ReconcileOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	client := service.NewGroupServiceClient(http.DefaultClient, opts.Server)
	formatter.VerboseLog("Reconciling group %s on %s", opts.GroupID, opts.Server)

	resp, err := client.Reconcile(ctx, connect.NewRequest(&service.ReconcileRequest{GroupID: opts.GroupID}))
	if err != nil {
		return formatter.Failure(WrapExitError(ExitFailure, "reconcile failed", err))
	}

	// Names are best effort; IDs are printed when the lookup fails.
	names := map[string]string{}
	if participants, err := client.ListParticipants(ctx, connect.NewRequest(&service.ListParticipantsRequest{GroupID: opts.GroupID})); err == nil {
		for _, p := range participants.Msg.Participants {
			names[p.ID] = p.Name
		}
	} else {
		formatter.VerboseLog("Could not resolve participant names: %v", err)
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	report := &ReconcileReport{
		GroupID:   opts.GroupID,
		Kept:      resp.Msg.Kept,
		Inserted:  resp.Msg.Inserted,
		Deleted:   resp.Msg.Deleted,
		Transfers: make([]RemoteTransfer, len(resp.Msg.Settlements)),
	}
	for i, s := range resp.Msg.Settlements {
		report.Transfers[i] = RemoteTransfer{
			ID:     s.ID,
			From:   name(s.FromID),
			To:     name(s.ToID),
			Amount: s.Amount,
			Status: s.Status,
		}
	}
	return formatter.Success(report)
}

// WriteText renders the report for a terminal.
func (r *ReconcileReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Group %s: %d kept, %d inserted, %d deleted\n", r.GroupID, r.Kept, r.Inserted, r.Deleted)
	for _, t := range r.Transfers {
		if _, err := fmt.Fprintf(w, "  %s -> %s: %d (%s)\n", t.From, t.To, t.Amount, t.Status); err != nil {
			return err
		}
	}
	return nil
}
