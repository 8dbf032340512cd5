package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/release"
)

// Prompter asks the user for the choices not given as flags.
type Prompter interface {
	ConfirmHardwareSigning() (bool, error)
	SelectRelease(releases []release.Release, prefix string) (release.Release, error)
}

type huhPrompter struct {
	stdin *os.File
}

func newHuhPrompter(stdin *os.File) *huhPrompter {
	return &huhPrompter{stdin: stdin}
}

func (p *huhPrompter) ConfirmHardwareSigning() (bool, error) {
	if err := p.requireTerminal(flagHardware + " or --" + flagSoftware); err != nil {
		return false, err
	}

	hardware := true
	err := huh.NewConfirm().
		Title("'zbcli' comes with software signing by default. Include hardware signing?").
		Affirmative("Yes").
		Negative("No").
		Value(&hardware).
		Run()
	if err != nil {
		return false, promptErr(err)
	}
	return hardware, nil
}

func (p *huhPrompter) SelectRelease(releases []release.Release, prefix string) (release.Release, error) {
	if err := p.requireTerminal(flagVersion); err != nil {
		return release.Release{}, err
	}

	options := make([]huh.Option[int], len(releases))
	for i, r := range releases {
		options[i] = huh.NewOption(releaseLabel(r), i)
	}

	var choice int
	err := huh.NewSelect[int]().
		Title("Select version").
		Description(fmt.Sprintf("Stable %s releases, newest first", prefix)).
		Options(options...).
		Filtering(true).
		Height(12).
		Value(&choice).
		Run()
	if err != nil {
		return release.Release{}, promptErr(err)
	}
	return releases[choice], nil
}

// requireTerminal fails fast when there is nobody to answer a prompt.
func (p *huhPrompter) requireTerminal(flag string) error {
	if p.stdin != nil && term.IsTerminal(int(p.stdin.Fd())) {
		return nil
	}
	return appErrors.New(appErrors.CodeConfiguration,
		fmt.Sprintf("stdin is not a terminal; pass --%s to run unattended", flag), nil)
}

func releaseLabel(r release.Release) string {
	if r.PublishedAt.IsZero() {
		return r.TagName
	}
	return fmt.Sprintf("%s  (%s)", r.TagName, r.PublishedAt.Format("2006-01-02"))
}

func promptErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("aborted")
	}
	return err
}
