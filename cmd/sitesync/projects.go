package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

var listCmd = &cobra.Command{
	Use:   "list <owner-id>",
	Short: "List an owner's projects, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.close()

		projects, err := e.svc.ListUserProjects(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printProjects(cmd.OutOrStdout(), projects)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one project by id, or by slug with --slug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bySlug, _ := cmd.Flags().GetBool("slug")

		e, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.close()

		var p *domain.Project
		if bySlug {
			p, err = e.svc.GetProjectBySlug(cmd.Context(), args[0])
		} else {
			p, err = e.svc.GetProject(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("project %s: %w", args[0], domain.ErrNotFound)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		return printProjects(cmd.OutOrStdout(), []domain.Project{*p})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <owner-id> <id>",
	Short: "Delete a project from the cache and the remote store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		// close waits for the background remote delete
		defer e.close()

		if err := e.svc.DeleteProject(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[1])
		return nil
	},
}

func init() {
	getCmd.Flags().Bool("slug", false, "treat the argument as a slug")
}

func printProjects(w io.Writer, projects []domain.Project) error {
	if jsonOutput {
		return writeJSON(w, projects)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tNAME\tSECTIONS\tSYNC\tUPDATED")
	for _, p := range projects {
		state := string(p.SyncState)
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Slug, p.Name, len(p.Sections), state, p.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
