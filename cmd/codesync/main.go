package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
)

func main() {
	cmd, err := newRootCommand().ExecuteC()
	if err != nil {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		reportError(os.Stderr, err, jsonOutput)
		os.Exit(1)
	}
}

// reportError prints err for the user. In JSON mode uncoded errors are
// reported as internal errors so the output always carries a code.
func reportError(w io.Writer, err error, jsonOutput bool) {
	if !jsonOutput {
		fmt.Fprintln(w, "Error:", cserrors.Message(err))
		return
	}

	var coded *cserrors.Error
	if !errors.As(err, &coded) {
		coded = cserrors.Wrap(err, cserrors.ErrCodeInternal, err.Error())
	}
	fmt.Fprintln(w, coded.ToJSON())
}
