package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contentops/content-core/internal/model"
	"github.com/contentops/content-core/internal/services"
)

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from a JSON content file",
		RunE: func(cmd *cobra.Command, args []string) error {
			contentPath, _ := cmd.Flags().GetString("content")
			desc, err := loadDescriptor()
			if err != nil {
				return err
			}
			values, err := readContentFile(contentPath)
			if err != nil {
				return err
			}
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			rec, snap, err := svc.CreateRecord(context.Background(), services.CreateRecordRequest{
				RecordType:    desc.Name,
				Schema:        desc.Schema(),
				InitialValues: values,
				Actor:         actorFlag,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created record %s at version %s\n", rec.RecordID, snap.Version)
			return nil
		},
	}
	cmd.Flags().StringP("content", "c", "", "JSON file with initial field values")
	return cmd
}

func mutateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mutate <record-id>",
		Short: "Propose new content for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentPath, _ := cmd.Flags().GetString("content")
			desc, err := loadDescriptor()
			if err != nil {
				return err
			}
			values, err := readContentFile(contentPath)
			if err != nil {
				return err
			}
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			_, snap, err := svc.MutateRecord(context.Background(), services.MutateRecordRequest{
				RecordID: args[0],
				Schema:   desc.Schema(),
				Content:  values,
				Actor:    actorFlag,
			})
			if err != nil {
				return err
			}
			if snap == nil {
				fmt.Println("nothing tracked changed; no snapshot created")
				return nil
			}
			fmt.Printf("record %s now at version %s\n", args[0], snap.Version)
			return nil
		},
	}
	cmd.Flags().StringP("content", "c", "", "JSON file with the full proposed content")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <record-id>",
		Short: "Promote the record's current snapshot to the next major version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := svc.PromoteMajorVersion(context.Background(), args[0], actorFlag)
			if err != nil {
				return err
			}
			fmt.Printf("record %s promoted to version %s\n", args[0], snap.Version)
			return nil
		},
	}
}

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <record-id> <snapshot-id>",
		Short: "Restore a record's content from a historical snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, _ := cmd.Flags().GetString("comment")
			svc, closeFn, err := openService()
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := svc.RestoreSnapshot(context.Background(), args[0], args[1], actorFlag, comment)
			if err != nil {
				return err
			}
			fmt.Printf("record %s restored; new version %s\n", args[0], snap.Version)
			return nil
		},
	}
	cmd.Flags().StringP("comment", "m", "", "Comment recorded on the restore snapshot")
	return cmd
}

func readContentFile(path string) (model.ContentDocument, error) {
	if path == "" {
		return model.ContentDocument{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	var doc model.ContentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode content file: %w", err)
	}
	return doc, nil
}
