package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contentops/content-core/internal/diff"
	"github.com/contentops/content-core/internal/present"
	"github.com/contentops/content-core/internal/recordtype"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <record-id>",
		Short: "List a record's snapshot history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			snaps, err := svc.ListSnapshots(context.Background(), args[0])
			if err != nil {
				return err
			}
			for _, s := range snaps {
				line := fmt.Sprintf("%-8s %s %s %s", s.Version, s.CreationTime.Format("2006-01-02 15:04"), s.SnapshotID, s.Actor)
				if s.RestoredFrom != nil {
					line += " (restored from " + *s.RestoredFrom + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id> <snapshot-id>",
		Short: "Print one snapshot as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := svc.GetSnapshot(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <record-id> <old-snapshot-id> <new-snapshot-id>",
		Short: "Compare the content of two snapshots",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			asText, _ := cmd.Flags().GetBool("text")
			all, _ := cmd.Flags().GetBool("all")

			var desc *recordtype.Descriptor
			if typeFlag != "" {
				var err error
				if desc, err = loadDescriptor(); err != nil {
					return err
				}
			}

			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := context.Background()
			oldSnap, err := svc.GetSnapshot(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			newSnap, err := svc.GetSnapshot(ctx, args[0], args[2])
			if err != nil {
				return err
			}

			cd := svc.Differ().DiffContent(
				diff.DocumentState{Document: oldSnap.Content, Schema: oldSnap.Schema},
				diff.DocumentState{Document: newSnap.Content, Schema: newSnap.Schema},
				!all,
			)
			if asText {
				fmt.Println(present.ContentText(cd, desc))
				return nil
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(present.ContentStructured(cd, desc))
		},
	}
	cmd.Flags().Bool("text", false, "Render a human-readable text diff")
	cmd.Flags().Bool("all", false, "Include unchanged fields")
	return cmd
}
