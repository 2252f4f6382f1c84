// Command intake walks a patient through a booking flow in the terminal.
// Drafts are kept on disk so an interrupted session resumes where it left
// off; the finished flow is posted to the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"

	"github.com/wolfman30/psychwebmd-intake/internal/drafts"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/forms"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

const localSession = "local"

type action string

const (
	actionNext    action = "next"
	actionBack    action = "back"
	actionResend  action = "resend"
	actionSubmit  action = "submit"
	actionRestart action = "restart"
	actionQuit    action = "quit"
)

func main() {
	_ = godotenv.Load()

	defaultAPI := os.Getenv("API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080/api"
	}
	flowKey := flag.String("flow", "new-patient-flow", "flow to run")
	apiURL := flag.String("api", defaultAPI, "API base URL")
	draftDir := flag.String("drafts", "", "draft directory (defaults to the user config dir)")
	list := flag.Bool("list", false, "list available flows and exit")
	flag.Parse()

	logger := logging.NewWithWriter(os.Stderr, "warn")
	registry := flows.Default()

	if *list {
		for _, f := range registry.All() {
			fmt.Printf("%-28s %s\n", f.Key, f.Title)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, registry, *flowKey, *apiURL, *draftDir, logger); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, registry *flows.Registry, flowKey, apiURL, draftDir string, logger *logging.Logger) error {
	if draftDir == "" {
		dir, err := drafts.DefaultDir()
		if err != nil {
			return fmt.Errorf("locate draft dir: %w", err)
		}
		draftDir = dir
	}
	store, err := drafts.NewFileStore(draftDir)
	if err != nil {
		return err
	}

	engine, err := wizard.New(wizard.Config{
		Flows:     registry,
		Drafts:    store,
		Submitter: newAPISubmitter(apiURL, 15*time.Second),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	sess, err := engine.Open(ctx, flowKey, localSession)
	if err != nil {
		return err
	}

	for {
		v := sess.View()
		if v.State == wizard.StateConfirmed {
			fmt.Println(renderConfirmation(v.Receipt))
			return nil
		}

		fmt.Println(renderHeader(sess.Flow().Title, v))
		if len(v.Errors) > 0 {
			fmt.Println(renderViolations(v.Errors))
		}

		sf := newStepForm(sess.Flow().StepFields(v.Step), v.Answers)
		if err := sf.form(v.StepTitle).RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Progress saved. Run again to resume.")
				return nil
			}
			return err
		}
		if err := sess.Set(ctx, sf.answers()); err != nil {
			return err
		}

		choice, err := chooseAction(ctx, sess.Flow(), sess.View())
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Progress saved. Run again to resume.")
				return nil
			}
			return err
		}
		if choice == actionQuit {
			fmt.Println("Progress saved. Run again to resume.")
			return nil
		}

		msg, err := perform(ctx, sess, choice)
		if msg != "" {
			fmt.Println(progressStyle.Render(msg))
		}
		if err != nil {
			if _, ok := forms.Violations(err); ok {
				continue
			}
			var se *wizard.SubmitError
			if errors.As(err, &se) {
				fmt.Println(errorStyle.Render(se.Message))
				continue
			}
			return err
		}
	}
}

// actions lists what the patient can do from the current step.
func actions(f *flows.Flow, v wizard.View) []action {
	var out []action
	if v.Step < v.TotalSteps {
		out = append(out, actionNext)
	} else {
		out = append(out, actionSubmit)
	}
	if v.Step == 1 && f.RequiresCode && v.CodeSent {
		out = append(out, actionResend)
	}
	if v.Step > 1 {
		out = append(out, actionBack)
	}
	return append(out, actionRestart, actionQuit)
}

var actionLabels = map[action]string{
	actionNext:    "Next",
	actionBack:    "Back",
	actionResend:  "Resend code",
	actionSubmit:  "Submit",
	actionRestart: "Start over",
	actionQuit:    "Save and quit",
}

func chooseAction(ctx context.Context, f *flows.Flow, v wizard.View) (action, error) {
	available := actions(f, v)
	opts := make([]huh.Option[action], 0, len(available))
	for _, a := range available {
		opts = append(opts, huh.NewOption(actionLabels[a], a))
	}
	choice := available[0]
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[action]().Title("What next?").Options(opts...).Value(&choice),
	)).RunWithContext(ctx)
	return choice, err
}

// perform applies a navigation action and returns a status line for the
// patient.
func perform(ctx context.Context, sess *wizard.Session, a action) (string, error) {
	switch a {
	case actionNext:
		t, err := sess.Advance(ctx)
		if err != nil {
			return "", err
		}
		if t == wizard.TransitionCodeSent {
			return "Verification code sent to " + strings.TrimSpace(sess.View().Answers.String("verifiedContact")) + ".", nil
		}
		return "", nil
	case actionBack:
		return "", sess.Retreat(ctx)
	case actionResend:
		if err := sess.SendCode(ctx); err != nil {
			return "", err
		}
		return "Code resent.", nil
	case actionSubmit:
		if _, err := sess.Submit(ctx); err != nil {
			return "", err
		}
		return "", nil
	case actionRestart:
		return "Starting over.", sess.Restart(ctx)
	}
	return "", fmt.Errorf("unknown action %q", a)
}
