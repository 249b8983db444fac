package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/manpreetbhatti/codesync/internal/config"
	"github.com/manpreetbhatti/codesync/internal/jobs"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

func newRunCommand() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a source file through a codesync server's job proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if user != "" {
				cfg.Jobs.User = user
			}

			sub, err := submissionFromFile(args[0], cfg.Jobs.User)
			if err != nil {
				return err
			}
			client := jobs.NewHTTPClient(cfg.Jobs.ServerURL)
			return runJob(cmd.Context(), client, sub, cfg.Jobs, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Name submitted with the job (defaults to jobs.user)")
	return cmd
}

func submissionFromFile(path, user string) (jobs.Submission, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return jobs.Submission{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	return jobs.Submission{
		User:      user,
		Filename:  strings.TrimSuffix(filepath.Base(path), ext),
		Language:  jobs.LanguageFromExtension(ext),
		Code:      string(code),
		Extension: ext,
	}, nil
}

// runJob submits sub, waits for a terminal state and prints the program
// output. A failed job is returned as its coded error.
func runJob(ctx context.Context, client jobs.Client, sub jobs.Submission, cfg config.JobsConfig, out io.Writer) error {
	log := logging.NewLogger("run")

	runner := jobs.NewRunner(client, jobs.Options{
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.Timeout,
		OnEvent: func(ev jobs.Event) {
			log.WithFields(logrus.Fields{
				"job":     ev.JobID,
				"state":   ev.State,
				"status":  ev.Status,
				"attempt": ev.Attempt,
			}).Debug("Job progress")
		},
	})
	defer runner.Close()

	job := runner.Submit(ctx, sub)
	res, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	if res.State != jobs.StateSucceeded {
		return res.Err
	}

	fmt.Fprint(out, res.Message)
	if !strings.HasSuffix(res.Message, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}
