package tui

import (
	"context"

	"github.com/agentuity/go-common/logger"
	"github.com/charmbracelet/huh/spinner"
)

// ShowSpinner displays a spinner while action runs. The spinner stops when
// action returns or ctx is cancelled, whichever comes first.
func ShowSpinner(ctx context.Context, logger logger.Logger, title string, action func()) {
	if err := spinner.New().Context(ctx).Title(title).Action(action).Run(); err != nil {
		logger.Fatal("%s", err)
	}
}
