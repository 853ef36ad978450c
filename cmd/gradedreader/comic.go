package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leofalp/gradedreader/core/comic"
)

func newComicCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comic",
		Short: "Generate and manage comics",
	}
	cmd.AddCommand(
		newComicGenerateCmd(a),
		newComicShowCmd(a),
		newComicAttachCmd(a),
		newComicDeleteCmd(a),
	)
	return cmd
}

func newComicGenerateCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "generate <story-id>...",
		Short: "Generate comic scripts for one or more stories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			svc, closeFn, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := svc.GenerateAll(cmd.Context(), ids, concurrency)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "story %d: %s\n", r.StoryID, comic.UserMessage(r.Err))
					a.logger.Debug("generation failed", "story_id", r.StoryID, "error", r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "story %d: comic %d (%d pages)\n",
					r.StoryID, r.Comic.ID, len(r.Comic.Panels.Pages()))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "usage:", a.tracker.Summary())
			if failed > 0 {
				return fmt.Errorf("%d of %d stories failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "maximum parallel generations")
	return cmd
}

func newComicShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <comic-id>",
		Short: "Print a comic's panels as JSON",
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

			c, err := svc.Comic(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c.Panels)
		},
	}
}

func newComicAttachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <comic-id> <panel-number> <image-file>",
		Short: "Attach an image to a panel",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid panel number %q", args[1])
			}

			f, err := os.Open(args[2])
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()

			svc, closeFn, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			url, err := svc.AttachImage(cmd.Context(), id, number, f)
			if errors.Is(err, comic.ErrPanelNotFound) {
				return errors.New(comic.UserMessage(err))
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}
}

func newComicDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comic-id>",
		Short: "Delete a comic",
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

			return svc.DeleteComic(cmd.Context(), id)
		},
	}
}
