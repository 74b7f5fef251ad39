package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sentinel/internal/monitor"
	"sentinel/internal/store/filestore"
	"sentinel/internal/whitelist"
	"sentinel/pkg/models"
)

type evaluateOptions struct {
	usersFile        string
	userID           string
	whitelist        []string
	selfRefs         []string
	interactionFile  string
	interactionID    string
	participants     string
	group            string
	conversationType string
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one interaction against a whitelist and print the alert as JSON",
		Long: `Evaluate runs the whitelist decision directly, without stores or
notifications. It prints the alert that would be persisted, or null.

Whitelist source is either --whitelist entries or a users file with --user.
The record is either --participants (with --group and --type) or a JSON
interaction document via --interaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.OutOrStdout(), opts, time.Now())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.usersFile, "users", "", "YAML users file to take the whitelist from")
	f.StringVar(&opts.userID, "user", "local", "User id")
	f.StringArrayVar(&opts.whitelist, "whitelist", nil, "Whitelisted name (repeatable)")
	f.StringArrayVar(&opts.selfRefs, "self-ref", nil, "Self-reference token (repeatable; defaults to the built-in list)")
	f.StringVar(&opts.interactionFile, "interaction", "", "JSON interaction document")
	f.StringVar(&opts.interactionID, "id", "cli", "Interaction id")
	f.StringVar(&opts.participants, "participants", "", "Comma-separated participant string")
	f.StringVar(&opts.group, "group", "", "Group label")
	f.StringVar(&opts.conversationType, "type", "", "Conversation type: individual or group")
	return cmd
}

func runEvaluate(out io.Writer, opts *evaluateOptions, now time.Time) error {
	user, err := resolveUser(opts)
	if err != nil {
		return err
	}

	rec := &models.Interaction{
		ConversationType: models.ParseConversationType(opts.conversationType),
		Participants:     opts.participants,
		Group:            opts.group,
	}
	if opts.interactionFile != "" {
		data, err := os.ReadFile(opts.interactionFile)
		if err != nil {
			return fmt.Errorf("read interaction: %w", err)
		}
		rec = &models.Interaction{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("parse interaction: %w", err)
		}
	}
	rec.ID = opts.interactionID
	rec.UserID = user.ID

	selfRefs := opts.selfRefs
	if len(selfRefs) == 0 {
		selfRefs = whitelist.DefaultSelfReferences
	}

	alert := monitor.Evaluate(rec, user, selfRefs, now)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(alert)
}

func resolveUser(opts *evaluateOptions) (*models.User, error) {
	if opts.usersFile == "" {
		return &models.User{ID: opts.userID, Whitelist: opts.whitelist}, nil
	}
	f, err := filestore.LoadUsersFile(opts.usersFile)
	if err != nil {
		return nil, err
	}
	for i := range f.Users {
		if f.Users[i].ID == opts.userID {
			u := f.Users[i]
			u.Whitelist = append(u.Whitelist, opts.whitelist...)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s not found in %s", opts.userID, opts.usersFile)
}
