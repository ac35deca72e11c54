package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"familytree/domain"
	"familytree/tree"

	"github.com/spf13/cobra"
)

func newTreeCmd(app *cliApp) *cobra.Command {
	var spacing float64

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Draw the family tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			forest, _, err := app.loadForest(cmd.Context())
			if err != nil {
				return err
			}
			if len(forest) == 0 {
				fmt.Fprintln(app.out, "Your family tree is empty. Start with: familytree member add --preset self --name <you>")
				return nil
			}
			layouter := tree.NewLayouter(spacing, app.log)
			return tree.Render(app.out, layouter.LayoutForest(forest))
		},
	}

	cmd.Flags().Float64Var(&spacing, "spacing", tree.DefaultSpacing, "horizontal distance between siblings")
	return cmd
}

func newMembersCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List members with their ids, indented by generation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, entries, err := app.loadForest(cmd.Context())
			if err != nil {
				return err
			}
			selected := app.parent.ID()
			for _, e := range entries {
				mark := " "
				if e.ID == selected {
					mark = "*"
				}
				fmt.Fprintf(app.out, "%s %-36s  %s\n", mark, e.ID, e.Indented())
			}
			return nil
		},
	}
}

type memberFlags struct {
	Name       string
	Relation   string
	Gender     string
	DOB        string
	Occupation string
	Parent     string
	Photo      string
	Address    domain.Address
}

func (f *memberFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Name, "name", "", "full name")
	cmd.Flags().StringVar(&f.Relation, "relation", "", "relation label, e.g. self, wife, son")
	cmd.Flags().StringVar(&f.Gender, "gender", "", "male, female or other")
	cmd.Flags().StringVar(&f.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Occupation, "occupation", "", "occupation")
	cmd.Flags().StringVar(&f.Parent, "parent", "", "parent member id")
	cmd.Flags().StringVar(&f.Photo, "photo", "", "path of an image to attach")
	cmd.Flags().StringVar(&f.Address.HouseNo, "house-no", "", "address: house number")
	cmd.Flags().StringVar(&f.Address.Place, "place", "", "address: place")
	cmd.Flags().StringVar(&f.Address.City, "city", "", "address: city")
	cmd.Flags().StringVar(&f.Address.State, "state", "", "address: state")
	cmd.Flags().StringVar(&f.Address.Country, "country", "", "address: country")
}

// apply copies the flags the user set onto form.
func (f *memberFlags) apply(cmd *cobra.Command, form *domain.MemberForm) error {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("name", &form.Name, f.Name)
	set("relation", &form.Relation, f.Relation)
	set("gender", &form.Gender, f.Gender)
	set("dob", &form.DOB, f.DOB)
	set("occupation", &form.Occupation, f.Occupation)
	set("parent", &form.ParentID, f.Parent)
	set("house-no", &form.Address.HouseNo, f.Address.HouseNo)
	set("place", &form.Address.Place, f.Address.Place)
	set("city", &form.Address.City, f.Address.City)
	set("state", &form.Address.State, f.Address.State)
	set("country", &form.Address.Country, f.Address.Country)

	if f.Photo != "" {
		photo, err := readPhoto(f.Photo)
		if err != nil {
			return err
		}
		form.Photo = photo
	}
	return nil
}

func readPhoto(path string) (*domain.PhotoFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return &domain.PhotoFile{Name: filepath.Base(path), Content: content}, nil
}

func presetNames() string {
	names := make([]string, 0, len(tree.Presets))
	for name := range tree.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newMemberCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add, edit and remove members of the family tree",
	}
	cmd.AddCommand(newMemberUseCmd(app))
	cmd.AddCommand(newMemberAddCmd(app))
	cmd.AddCommand(newMemberAddSpouseCmd(app))
	cmd.AddCommand(newMemberShowCmd(app))
	cmd.AddCommand(newMemberEditCmd(app))
	cmd.AddCommand(newMemberRmCmd(app))
	return cmd
}

func newMemberAddCmd(app *cliApp) *cobra.Command {
	var flags memberFlags
	var preset, under string

	cmd := &cobra.Command{
		Use:   "add --name <name> [--preset self|wife|husband|son|daughter] [--under <member id>]",
		Short: "Add a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			form := domain.MemberForm{}

			if preset != "" {
				p, ok := tree.Presets[strings.ToLower(preset)]
				if !ok {
					return fmt.Errorf("unknown preset %q (choose one of %s)", preset, presetNames())
				}

				if p.ParentFromContext && (under != "" || app.parent.ID() != "") {
					_, entries, err := app.loadForest(cmd.Context())
					if err != nil {
						return err
					}
					if under != "" && !app.parent.Select(entries, under) {
						fmt.Fprintf(app.out, "Member %s no longer exists; adding without a parent\n", under)
					}
					if err := app.saveParent(); err != nil {
						return err
					}
				}
				p.Apply(&form, &app.parent)
			}

			if err := flags.apply(cmd, &form); err != nil {
				return err
			}

			member, err := app.api.CreateMember(cmd.Context(), &form)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Added %s (%s)\n", member.Name, member.MemberID)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&preset, "preset", "", "quick-add preset: "+presetNames())
	cmd.Flags().StringVar(&under, "under", "", "select this member as context parent first")
	return cmd
}

func newMemberAddSpouseCmd(app *cliApp) *cobra.Command {
	var flags memberFlags

	cmd := &cobra.Command{
		Use:   "add-spouse <member id> --name <name>",
		Short: "Add the spouse of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partner, err := app.api.GetMember(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if partner.SpouseID != nil {
				return fmt.Errorf("%s already has a spouse", partner.Name)
			}

			form := tree.PrefillFor(partner, tree.SpousePresetFor(partner))
			if err := flags.apply(cmd, &form); err != nil {
				return err
			}

			member, err := app.api.CreateMember(cmd.Context(), &form)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Added %s as %s of %s\n", member.Name, member.Relation, partner.Name)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func newMemberShowCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "show <member id>",
		Short: "Show a member's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.api.GetMember(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out, "%s\n", m.Name)
			row := func(label, value string) {
				if value != "" {
					fmt.Fprintf(app.out, "  %-11s %s\n", label+":", value)
				}
			}
			row("Relation", m.Relation)
			row("Gender", m.Gender)
			if m.DOB != nil {
				row("Born", m.DOB.Format("2006-01-02"))
			}
			if m.Occupation != nil {
				row("Occupation", *m.Occupation)
			}
			row("Address", m.Address.String())
			if m.Photo != nil {
				row("Photo", *m.Photo)
			}
			if m.ParentID != nil {
				row("Parent", *m.ParentID)
			}
			if m.SpouseID != nil {
				row("Spouse", *m.SpouseID)
			}
			return nil
		},
	}
}

func newMemberEditCmd(app *cliApp) *cobra.Command {
	var flags memberFlags
	var clearParent bool

	cmd := &cobra.Command{
		Use:   "edit <member id> [flags]",
		Short: "Change a member's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.api.GetMember(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			form := formFromMember(m)
			if err := flags.apply(cmd, &form); err != nil {
				return err
			}
			if clearParent {
				form.ParentID = ""
			}

			updated, err := app.api.UpdateMember(cmd.Context(), m.MemberID, &form)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Updated %s\n", updated.Name)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&clearParent, "root", false, "make the member a root of the tree")
	return cmd
}

func formFromMember(m *domain.Member) domain.MemberForm {
	form := domain.MemberForm{
		Name:     m.Name,
		Relation: m.Relation,
		Gender:   m.Gender,
		Address:  m.Address,
	}
	if m.DOB != nil {
		form.DOB = m.DOB.Format("2006-01-02")
	}
	if m.Occupation != nil {
		form.Occupation = *m.Occupation
	}
	if m.ParentID != nil {
		form.ParentID = *m.ParentID
	}
	return form
}

func newMemberRmCmd(app *cliApp) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <member id>",
		Short: "Delete a member together with everyone below them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := app.prompt(fmt.Sprintf("Delete %s and all of their descendants? [y/N] ", args[0]))
				if err != nil {
					return err
				}
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(app.out, "Cancelled")
					return nil
				}
			}

			n, err := app.api.DeleteMember(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// The store cascades; read the tree back rather than guessing.
			_, entries, err := app.loadForest(cmd.Context())
			if err != nil {
				return errors.Join(fmt.Errorf("deleted %d member(s) but failed to reload", n), err)
			}
			fmt.Fprintf(app.out, "Deleted %d member(s); %d remain\n", n, len(entries))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
