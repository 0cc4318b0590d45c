package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

var (
	queryVariables string
	queryCached    bool
	queryRetry     int
	queryFile      string
)

var queryCmd = &cobra.Command{
	Use:   "query [document]",
	Short: "Execute a query or mutation and print the response envelope",
	Long: `Execute a GraphQL query or mutation against an endpoint.

The document is passed as the single argument, via --file, or on stdin.
The full response envelope is printed as indented JSON. When the envelope
carries GraphQL errors the command exits non-zero with the errors on stderr,
but partial data is still printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document, err := readDocument(args)
		if err != nil {
			return err
		}
		vars, err := parseVariables(queryVariables)
		if err != nil {
			return err
		}
		c, err := buildClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var resp *graphql.Response
		switch {
		case queryRetry > 0:
			resp, err = c.ExecuteWithRetry(ctx, document, vars, queryRetry)
		case queryCached:
			resp, err = c.ExecuteCached(ctx, document, vars)
		default:
			resp, err = c.Execute(ctx, document, vars)
		}

		var execErr *graphql.ExecutionError
		if errors.As(err, &execErr) {
			// Partial data is still worth printing.
			resp = execErr.Response
			err = nil
		}
		if err != nil {
			return err
		}

		printEnvelope(resp)
		if resp.HasErrors() {
			for _, ge := range resp.Errors {
				fmt.Fprintln(os.Stderr, "error:", ge.Message)
			}
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "Operation variables as a JSON object")
	queryCmd.Flags().BoolVar(&queryCached, "cached", false, "Serve from the result cache when possible")
	queryCmd.Flags().IntVar(&queryRetry, "retry", 0, "Retry transport failures up to N attempts")
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "Read the document from a file")
	rootCmd.AddCommand(queryCmd)
}

// readDocument resolves the operation text from argument, file, or stdin.
func readDocument(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if queryFile != "" {
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return "", fmt.Errorf("reading document: %w", err)
		}
		return string(data), nil
	}
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading document from stdin: %w", err)
		}
		if len(data) > 0 {
			return string(data), nil
		}
	}
	return "", errors.New("no document given: pass it as an argument, via --file, or on stdin")
}

func printEnvelope(resp *graphql.Response) {
	if resp == nil {
		return
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(data))
}
