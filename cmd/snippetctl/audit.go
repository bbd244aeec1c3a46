package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

func (c *cli) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	cmd.AddCommand(c.auditListCmd())
	return cmd
}

func (c *cli) auditListCmd() *cobra.Command {
	var (
		userID    int64
		action    string
		modelName string
		limit     int
		offset    int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records, oldest first",
		Long: `Lists audit records in the order they were written.

Examples:
  # Everything user 3 did
  snippetctl audit list --user 3

  # Every snippet deletion, as JSON
  snippetctl audit list --model Snippet --action delete --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f repository.AuditFilter
			if cmd.Flags().Changed("user") {
				f.UserID = &userID
			}
			if action != "" {
				a, err := model.ParseAction(action)
				if err != nil {
					return err
				}
				f.Action = a
			}
			if modelName != "" {
				m, err := model.ParseModelName(modelName)
				if err != nil {
					return err
				}
				f.ModelName = m
			}
			f.Limit, f.Offset = limit, offset

			records, err := c.audit.List(systemCtx(cmd), f)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("!")+" No audit records match")
				return nil
			}
			return printRecords(cmd, records)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "only records by this user id")
	cmd.Flags().StringVar(&action, "action", "", "only this action: create, update or delete")
	cmd.Flags().StringVar(&modelName, "model", "", "only this entity type: User or Snippet")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip (with --limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printRecords(cmd *cobra.Command, records []model.AuditRecord) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tUSER\tACTION\tMODEL\tOBJECT")
	for _, r := range records {
		user := "system"
		if r.UserID != nil {
			user = strconv.FormatInt(*r.UserID, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.Timestamp.Format(time.RFC3339), user, colorAction(r.Action), r.ModelName, r.ObjectID)
	}
	return w.Flush()
}

func colorAction(a model.Action) string {
	switch a {
	case model.ActionCreate:
		return color.GreenString(string(a))
	case model.ActionDelete:
		return color.RedString(string(a))
	}
	return color.YellowString(string(a))
}
