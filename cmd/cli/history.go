package main

import (
	"fmt"
	"strings"

	"tourney-bot/pkg/util"

	"github.com/spf13/cobra"
)

func newHistoryCmd(storagePath *string) *cobra.Command {
	var guild string
	c := &cobra.Command{
		Use:   "history",
		Short: "Print the recent command history of a guild",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireGuild(guild); err != nil {
				return err
			}
			s, err := openStorage(*storagePath)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.CommandHistory(guild)
			if err != nil {
				return err
			}
			for _, h := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s #%-20s /%s\n",
					util.FormatDateTpl(h.Datetime, "YYYY-MM-DD hh:mm:ss"), h.Username, h.ChannelName, h.Command)
			}
			return nil
		},
	}
	c.Flags().StringVar(&guild, "guild", "", "guild ID")
	return c
}

func newGroupsCmd(storagePath *string) *cobra.Command {
	var guild string
	c := &cobra.Command{
		Use:   "groups",
		Short: "Show or change the disabled command groups of a guild",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireGuild(guild); err != nil {
				return err
			}
			s, err := openStorage(*storagePath)
			if err != nil {
				return err
			}
			defer s.Close()

			groups, err := s.DisabledGroups(guild)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no disabled groups")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(groups, "\n"))
			return nil
		},
	}
	c.PersistentFlags().StringVar(&guild, "guild", "", "guild ID")

	toggle := func(use, short string, enable bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <group>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := requireGuild(guild); err != nil {
					return err
				}
				s, err := openStorage(*storagePath)
				if err != nil {
					return err
				}
				defer s.Close()

				group := strings.ToLower(args[0])
				if enable {
					err = s.EnableGroup(guild, group)
				} else {
					err = s.DisableGroup(guild, group)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %sd\n", group, use)
				return nil
			},
		}
	}
	c.AddCommand(
		toggle("enable", "Enable a command group", true),
		toggle("disable", "Disable a command group", false),
	)
	return c
}
