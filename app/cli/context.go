package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"familytree/domain"
	"familytree/tree"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// The context parent outlives a single invocation, so it is kept in a file
// next to the session.
func (a *cliApp) parentPath() string {
	return a.opts.SessionPath + ".parent"
}

func (a *cliApp) loadParent() error {
	content, err := os.ReadFile(a.parentPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read context parent: %w", err)
	}
	var e tree.Entry
	if err := sonic.Unmarshal(content, &e); err != nil {
		a.log.WithError(err).Warn("ignoring unreadable context parent")
		return nil
	}
	a.parent.Restore(e)
	return nil
}

func (a *cliApp) saveParent() error {
	cur, ok := a.parent.Current()
	if !ok {
		if err := os.Remove(a.parentPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to clear context parent: %w", err)
		}
		return nil
	}
	content, err := sonic.Marshal(cur)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.parentPath(), content, 0o600); err != nil {
		return fmt.Errorf("failed to store context parent: %w", err)
	}
	return nil
}

// loadForest fetches the member forest and revalidates the context parent
// against it.
func (a *cliApp) loadForest(ctx context.Context) ([]domain.Member, []tree.Entry, error) {
	forest, err := a.api.GetForest(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries := tree.Flatten(forest)

	before, _ := a.parent.Current()
	if a.parent.Revalidate(entries) {
		fmt.Fprintf(a.out, "%s is no longer in the tree; context parent cleared\n", before.Name)
	}
	if err := a.saveParent(); err != nil {
		return nil, nil, err
	}
	return forest, entries, nil
}

func newMemberUseCmd(app *cliApp) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "use <member id> | --clear",
		Short: "Choose the member quick-add presets attach new members to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if unset {
				app.parent.Clear()
				if err := app.saveParent(); err != nil {
					return err
				}
				fmt.Fprintln(app.out, "Context parent cleared")
				return nil
			}
			if len(args) == 0 {
				cur, ok := app.parent.Current()
				if !ok {
					fmt.Fprintln(app.out, "No context parent")
					return nil
				}
				fmt.Fprintf(app.out, "Context parent: %s (%s)\n", cur.Name, cur.ID)
				return nil
			}

			_, entries, err := app.loadForest(cmd.Context())
			if err != nil {
				return err
			}
			if !app.parent.Select(entries, args[0]) {
				return fmt.Errorf("%w: member %s", domain.ErrNotFound, args[0])
			}
			if err := app.saveParent(); err != nil {
				return err
			}
			cur, _ := app.parent.Current()
			fmt.Fprintf(app.out, "Context parent: %s (%s)\n", cur.Name, cur.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "clear", false, "unset the context parent")
	return cmd
}
