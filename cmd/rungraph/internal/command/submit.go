package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/animus-labs/rungraph/internal/execution/graph"
	"github.com/animus-labs/rungraph/internal/platform/env"
	"github.com/animus-labs/rungraph/internal/platform/httpserver"
	"github.com/animus-labs/rungraph/internal/platform/requestid"
)

type SubmitOptions struct {
	RunOptions

	Server       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

func NewSubmitCommand(cli *CLI) *cobra.Command {
	opts := &SubmitOptions{}
	cmd := &cobra.Command{
		Use:   "submit -f <run> --server <url>",
		Short: "Send a run to a graph-service and print the stored graph",
		Long: Highlight("rungraph submit -f run.json --server https://graphs.example") + "\n\n" +
			"The run is checked locally first. When --token-url is set the request is\n" +
			"authorized with an OAuth2 client credentials token.\n",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), cmd, cli, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Server, "server", env.String("RUNGRAPH_SERVER_URL", ""), "graph-service base URL")
	cmd.Flags().StringVar(&opts.TokenURL, "token-url", env.String("RUNGRAPH_TOKEN_URL", ""), "OAuth2 token endpoint")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", env.String("RUNGRAPH_CLIENT_ID", ""), "OAuth2 client id")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", env.String("RUNGRAPH_CLIENT_SECRET", ""), "OAuth2 client secret")
	cmd.Flags().StringSliceVar(&opts.Scopes, "scopes", env.Strings("RUNGRAPH_CLIENT_SCOPES", nil), "OAuth2 scopes")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}

func (o SubmitOptions) validate() error {
	if strings.TrimSpace(o.Server) == "" {
		return errors.New("--server is required")
	}
	u, err := url.Parse(o.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("--server %q must be an absolute URL", o.Server)
	}
	if o.TokenURL != "" && (o.ClientID == "" || o.ClientSecret == "") {
		return errors.New("--client-id and --client-secret are required with --token-url")
	}
	if o.Timeout <= 0 {
		return errors.New("--timeout must be positive")
	}
	return nil
}

// httpClient returns a client that attaches client credentials tokens when a
// token endpoint is configured.
func (o SubmitOptions) httpClient(ctx context.Context) *http.Client {
	if o.TokenURL == "" {
		return &http.Client{Timeout: o.Timeout}
	}
	cfg := clientcredentials.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		TokenURL:     o.TokenURL,
		Scopes:       o.Scopes,
	}
	client := cfg.Client(ctx)
	client.Timeout = o.Timeout
	return client
}

func runSubmit(ctx context.Context, cmd *cobra.Command, cli *CLI, opts *SubmitOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	raw, format, err := opts.readPayload(cmd.InOrStdin())
	if err != nil {
		return err
	}
	local := opts.RunOptions
	local.Path = "-"
	local.Format = format
	run, err := local.load(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if run.ID == "" {
		return errors.New("run id is required: set it in the run or pass --run-id")
	}
	if _, err := graph.Build(run); err != nil {
		return err
	}

	endpoint := strings.TrimRight(opts.Server, "/") + "/runs/" + url.PathEscape(run.ID) + "/graph"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType(format))
	if id, err := requestid.New(); err == nil {
		req.Header.Set(httpserver.HeaderRequestID, id)
	}

	resp, err := opts.httpClient(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("submit run %s: %w", run.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	cli.Logger.Debug("run submitted", "run_id", run.ID, "status", resp.StatusCode, "request_id", req.Header.Get(httpserver.HeaderRequestID))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("graph-service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if cli.Output == OutputJSON {
		_, err = cli.Out.Write(body)
		return err
	}
	var summary struct {
		RunID        string   `json:"run_id"`
		Digest       string   `json:"digest"`
		Created      bool     `json:"created"`
		Cached       bool     `json:"cached"`
		Tasks        int      `json:"tasks"`
		Dependencies int      `json:"dependencies"`
		Unsupported  []string `json:"unsupported_ops"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	state := "reused"
	if summary.Created {
		state = "created"
	}
	fmt.Fprintf(cli.Out, "%s %s %s (digest %s)\n", Highlight("run"), summary.RunID, state, summary.Digest)
	fmt.Fprintf(cli.Out, "tasks=%d dependencies=%d\n", summary.Tasks, summary.Dependencies)
	if len(summary.Unsupported) > 0 {
		fmt.Fprintf(cli.Out, "unsupported ops: %s\n", strings.Join(summary.Unsupported, ", "))
	}
	return nil
}

func contentType(format string) string {
	if format == "yaml" || format == "yml" {
		return "application/yaml"
	}
	return "application/json"
}
