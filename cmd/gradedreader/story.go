package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/gradedreader/providers/storyfetch"
)

func newStoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Manage reading texts",
	}
	cmd.AddCommand(newStoryAddCmd(a), newStoryShowCmd(a))
	return cmd
}

func newStoryAddCmd(a *app) *cobra.Command {
	var (
		title string
		url   string
	)

	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Store a story from a file, stdin or a web page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var content string
			if url != "" {
				if len(args) > 0 {
					return fmt.Errorf("use either a file or --url, not both")
				}
				page, err := storyfetch.New(a.cfg.RequestTimeout).Fetch(ctx, url)
				if err != nil {
					return err
				}
				content = page.Markdown
				if title == "" {
					title = page.Title
				}
			} else {
				raw, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				content = raw
			}

			svc, closeFn, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			defer closeFn()

			story, err := svc.SaveStory(ctx, title, strings.TrimSpace(content))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", story.ID, story.Title)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "story title (default: first heading or Untitled)")
	cmd.Flags().StringVar(&url, "url", "", "fetch the story from a web page")
	return cmd
}

func newStoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <story-id>",
		Short: "Print a stored story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			svc, closeFn, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			story, err := svc.Story(cmd.Context(), id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n\n%s\n", story.Title, story.Content)
			return err
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
