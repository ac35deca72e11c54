package main

import (
	"context"
	"fmt"
	"strconv"

	"familytree/domain"
	"familytree/editor"

	"github.com/spf13/cobra"
)

func (a *cliApp) loadEditor(ctx context.Context) (*editor.Editor, error) {
	ed := editor.New(a.api, editor.NotifierFunc(func(msg string) {
		fmt.Fprintln(a.out, msg)
	}), a.log)
	if err := ed.Load(ctx); err != nil {
		ed.Close()
		return nil, err
	}
	return ed, nil
}

func newGraphCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Work with the free-form family graph",
	}
	cmd.AddCommand(newGraphShowCmd(app))
	cmd.AddCommand(newGraphAddCmd(app))
	cmd.AddCommand(newGraphEditCmd(app))
	cmd.AddCommand(newGraphMoveCmd(app))
	cmd.AddCommand(newGraphConnectCmd(app))
	cmd.AddCommand(newGraphRmCmd(app))
	cmd.AddCommand(newGraphBulkCmd(app, "clear", "Delete every node and connection of your graph", domain.ClearAllPhrase,
		func(ed *editor.Editor, ctx context.Context, typed string) (bool, error) { return ed.ClearAll(ctx, typed) }))
	cmd.AddCommand(newGraphBulkCmd(app, "wipe", "Delete all graph data of every account", domain.WipeAllPhrase,
		func(ed *editor.Editor, ctx context.Context, typed string) (bool, error) { return ed.WipeAll(ctx, typed) }))
	return cmd
}

func newGraphShowCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List nodes and connections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			nodes := ed.Nodes()
			names := make(map[string]string, len(nodes))
			fmt.Fprintf(app.out, "Nodes (%d):\n", len(nodes))
			for _, n := range nodes {
				names[n.ID] = n.Data.Name
				fmt.Fprintf(app.out, "  %-36s  %-24s @ (%g, %g)\n", n.ID, n.Data.Name, n.Position.X, n.Position.Y)
			}
			edges := ed.Edges()
			fmt.Fprintf(app.out, "Connections (%d):\n", len(edges))
			for _, e := range edges {
				fmt.Fprintf(app.out, "  %s -[%s]-> %s\n", names[e.Source], e.Label, names[e.Target])
			}
			return nil
		},
	}
}

type nodeFlags struct {
	Name        string
	DateOfBirth string
	DateOfDeath string
	Gender      string
	Occupation  string
	Location    string
	Notes       string
	Photo       string
}

func (f *nodeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Name, "name", "", "full name")
	cmd.Flags().StringVar(&f.DateOfBirth, "born", "", "date of birth")
	cmd.Flags().StringVar(&f.DateOfDeath, "died", "", "date of death")
	cmd.Flags().StringVar(&f.Gender, "gender", "", "male, female or other")
	cmd.Flags().StringVar(&f.Occupation, "occupation", "", "occupation")
	cmd.Flags().StringVar(&f.Location, "location", "", "where they live or lived")
	cmd.Flags().StringVar(&f.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.Photo, "photo", "", "path of an image to attach")
}

func (f *nodeFlags) form(base domain.NodeData) (*domain.NodeForm, error) {
	pick := func(v, old string) string {
		if v != "" {
			return v
		}
		return old
	}
	form := &domain.NodeForm{
		Name:        pick(f.Name, base.Name),
		DateOfBirth: pick(f.DateOfBirth, base.DateOfBirth),
		DateOfDeath: pick(f.DateOfDeath, base.DateOfDeath),
		Gender:      pick(f.Gender, base.Gender),
		Occupation:  pick(f.Occupation, base.Occupation),
		Location:    pick(f.Location, base.Location),
		Notes:       pick(f.Notes, base.Notes),
	}
	if f.Photo != "" {
		photo, err := readPhoto(f.Photo)
		if err != nil {
			return nil, err
		}
		form.Photo = photo
	}
	return form, nil
}

func newGraphAddCmd(app *cliApp) *cobra.Command {
	var flags nodeFlags

	cmd := &cobra.Command{
		Use:   "add --name <name>",
		Short: "Add a person to the graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			form, err := flags.form(domain.NodeData{})
			if err != nil {
				return err
			}
			node, err := ed.AddNode(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Added %s (%s)\n", node.Data.Name, node.ID)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func newGraphEditCmd(app *cliApp) *cobra.Command {
	var flags nodeFlags

	cmd := &cobra.Command{
		Use:   "edit <node id> [flags]",
		Short: "Change a person's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			node, ok := ed.Node(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", editor.ErrUnknownNode, args[0])
			}
			form, err := flags.form(node.Data)
			if err != nil {
				return err
			}
			updated, err := ed.EditNode(cmd.Context(), node.ID, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Updated %s\n", updated.Data.Name)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func newGraphMoveCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "move <node id> <x> <y>",
		Short: "Move a person on the canvas",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q", args[2])
			}

			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			if err := ed.MoveNode(args[0], domain.Position{X: x, Y: y}); err != nil {
				return err
			}
			return ed.Save(cmd.Context())
		},
	}
}

func (a *cliApp) chooseRelationship() (domain.RelationshipType, error) {
	fmt.Fprintln(a.out, "Relationship:")
	for i, rt := range domain.RelationshipTypes {
		fmt.Fprintf(a.out, "  %d) %s\n", i+1, rt.Label())
	}
	answer, err := a.prompt("Choose 1-5: ")
	if err != nil {
		return "", err
	}
	return domain.ParseRelationshipType(answer), nil
}

func newGraphConnectCmd(app *cliApp) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "connect <source id> <target id> [--type spouse|parent-child|sibling|grandparent-grandchild|other]",
		Short: "Connect two people",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			rt := domain.ParseRelationshipType(kind)
			if !cmd.Flags().Changed("type") {
				if rt, err = app.chooseRelationship(); err != nil {
					return err
				}
			}

			edge, err := ed.Connect(args[0], args[1], rt)
			if err != nil {
				return err
			}
			if err := ed.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Connected as %s\n", edge.Label)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "relationship type")
	return cmd
}

func newGraphRmCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <node id>",
		Short: "Remove a person and their connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			summary, err := ed.DeleteNode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Removed 1 person and %d connection(s)\n", summary.DeletedConnections)
			return nil
		},
	}
}

type bulkAction func(ed *editor.Editor, ctx context.Context, typed string) (bool, error)

func newGraphBulkCmd(app *cliApp, use, short, phrase string, action bulkAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := app.loadEditor(cmd.Context())
			if err != nil {
				return err
			}
			defer ed.Close()

			typed, err := app.prompt(fmt.Sprintf("This cannot be undone. Type %q to confirm: ", phrase))
			if err != nil {
				return err
			}
			ok, err := action(ed, cmd.Context(), typed)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(app.out, "Cancelled")
				return nil
			}
			fmt.Fprintln(app.out, "Done")
			return nil
		},
	}
}
