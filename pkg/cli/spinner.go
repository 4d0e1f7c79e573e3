package cli

import (
	"github.com/charmbracelet/huh/spinner"
)

// RunSpinnerWithResult runs an action with a spinner and returns any error.
// JSON output runs the action without a spinner.
func RunSpinnerWithResult(title string, fn func() error) error {
	if IsJSONOutput() {
		return fn()
	}

	var actionErr error

	err := spinner.New().
		Title("  " + title).
		Action(func() {
			actionErr = fn()
		}).
		Run()

	if err != nil {
		return err
	}
	return actionErr
}
