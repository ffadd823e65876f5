package command

import (
	"github.com/mitchellh/cli"
)

// Commands returns the postsctl command table.
func Commands(m *Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"stats": func() (cli.Command, error) {
			return &StatsCommand{Meta: m}, nil
		},
		"fix-categories": func() (cli.Command, error) {
			return &FixCategoriesCommand{Meta: m}, nil
		},
		"backfill-images": func() (cli.Command, error) {
			return &BackfillImagesCommand{Meta: m}, nil
		},
		"delete": func() (cli.Command, error) {
			return &DeleteCommand{Meta: m}, nil
		},
		"verify-sync": func() (cli.Command, error) {
			return &VerifySyncCommand{Meta: m}, nil
		},
		"discover": func() (cli.Command, error) {
			return &DiscoverCommand{Meta: m}, nil
		},
		"export": func() (cli.Command, error) {
			return &ExportCommand{Meta: m}, nil
		},
		"serve": func() (cli.Command, error) {
			return &ServeCommand{Meta: m}, nil
		},
	}
}
