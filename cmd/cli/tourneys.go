package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"tourney-bot/internal/storage"
	"tourney-bot/internal/tourney"
	"tourney-bot/pkg/util"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func openStorage(path string) (*storage.Storage, error) {
	s, err := storage.New(path, storage.Options{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, nil
}

func newTourneysCmd(storagePath *string) *cobra.Command {
	var guild string

	c := &cobra.Command{
		Use:   "tourneys",
		Short: "List, show and delete stored tourneys",
	}
	c.PersistentFlags().StringVar(&guild, "guild", "", "guild ID")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the tourneys of a guild",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireGuild(guild); err != nil {
				return err
			}
			s, err := openStorage(*storagePath)
			if err != nil {
				return err
			}
			defer s.Close()

			all, err := s.Tourneys(guild)
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), all)
		},
	}

	var id, format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print one tourney",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireGuild(guild); err != nil {
				return err
			}
			s, err := openStorage(*storagePath)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := s.Tourney(guild, id)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), format, t)
		},
	}
	show.Flags().StringVar(&id, "id", "", "tourney ID")
	show.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	_ = show.MarkFlagRequired("id")

	var deleteID string
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a tourney",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireGuild(guild); err != nil {
				return err
			}
			s, err := openStorage(*storagePath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteTourney(guild, deleteID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", deleteID)
			return nil
		},
	}
	del.Flags().StringVar(&deleteID, "id", "", "tourney ID")
	_ = del.MarkFlagRequired("id")

	c.AddCommand(list, show, del)
	return c
}

func writeTable(w io.Writer, all []tourney.Tourney) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREGISTRATION\tSLOTS\tUPDATED")
	for _, t := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			t.ID, t.Name, t.RegistrationChannelID, t.TotalSlots, util.FormatDateTpl(t.UpdatedAt, "YYYY-MM-DD hh:mm"))
	}
	return tw.Flush()
}

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
