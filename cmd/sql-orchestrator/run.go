package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/service"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <request-file|->",
		Short: "Execute a batch request file against the configured connections",
		Long: `Execute one batch request locally, without the daemon.

The request is read from a JSON or YAML file, or from stdin when the
argument is "-". A missing serviceName defaults to ` + service.Name + `.`,
		Example: `  sql-orchestrator run batch.yaml
  sql-orchestrator run --json batch.json
  cat batch.json | sql-orchestrator run -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return errors.Wrap(err, "read request")
			}
			if data.ServiceName == "" {
				data.ServiceName = service.Name
			}

			cfg, err := config.LoadOrDefault()
			if err != nil {
				return err
			}

			log := root.logger()
			adapter := db.NewSQLAdapter(cfg, db.OptionsFromConfig(cfg.Pool), db.SecretPasswords, log)
			defer adapter.Close()

			start := time.Now()
			resp := service.New(adapter, cfg, log).Request(cmd.Context(), data)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return err
				}
			} else if resp.OK() {
				renderDataSet(out, resp.DataSet)
				fmt.Fprintf(out, "\n%s in %s\n", resp.Status, time.Since(start).Truncate(time.Millisecond))
			}

			if !resp.OK() {
				return errors.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response as JSON")
	return cmd
}

func readRequest(stdin io.Reader, name string) (*service.ServiceData, error) {
	var (
		b   []byte
		err error
	)
	if name == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, err
	}
	return decodeRequest(b, strings.ToLower(filepath.Ext(name)))
}

// decodeRequest picks the format by extension, or by the first byte when
// there is none.
func decodeRequest(b []byte, ext string) (*service.ServiceData, error) {
	switch ext {
	case ".yaml", ".yml":
		return service.DecodeYAML(b)
	case ".json":
		return service.DecodeJSON(bytes.NewReader(b))
	}
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
		return service.DecodeJSON(bytes.NewReader(b))
	}
	return service.DecodeYAML(b)
}
