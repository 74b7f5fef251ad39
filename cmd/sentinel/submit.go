package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sentinel/internal/capture"
	"sentinel/internal/logger"
)

type submitOptions struct {
	userID string
}

func newSubmitCmd(root *rootOptions) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit [snapshot.json|-]",
		Short: "Publish a captured conversation snapshot as an interaction record",
		Long: `Submit reads a capture snapshot (package, activityClass, texts, individual),
builds the interaction record, writes it to the configured store and pushes a
change event onto the feed for the monitor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.userID == "" {
				return fmt.Errorf("--user is required")
			}
			snap, err := readSnapshot(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, _, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			s := &cfg.Sentinel

			if !capture.IsConversationScreen(snap.Package, snap.ActivityClass, s.Capture.TargetPackage) {
				return fmt.Errorf("snapshot is not a %s conversation screen (package=%s class=%s)", s.Capture.TargetPackage, snap.Package, snap.ActivityClass)
			}

			b, err := openBackend(s)
			if err != nil {
				return err
			}
			defer b.close()
			if b.interactions == nil {
				logger.Warnf("Store mode %s cannot persist interactions; publishing to the feed only", s.Store.Mode)
			}

			queue, err := newQueue(s)
			if err != nil {
				return fmt.Errorf("create Redis queue: %w", err)
			}
			defer queue.Close()

			rec, err := capture.NewPublisher(b.interactions, queue).Publish(cmd.Context(), opts.userID, *snap)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(map[string]string{"user_id": rec.UserID, "interaction_id": rec.ID})
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "Owning user id")
	return cmd
}

func readSnapshot(stdin io.Reader, path string) (*capture.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap capture.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}
