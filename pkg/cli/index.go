// Copyright (c) 2025, the kubechat authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/kubechat/kubechat/pkg/api"
	"github.com/kubechat/kubechat/pkg/rag"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:                  "index",
		EnableShellCompletion: true,
		Usage:                 "Build the knowledge base retrieval index",
		Description: `Embed the *.txt documents in the data directory and store the chunks in
the retrieval database. The server rebuilds the index on startup; this
command does the same work offline so a deployment can ship a warm index.`,
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "knowledge base directory (overrides config file)",
				Sources: cli.EnvVars("KUBECHAT_DATA_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := api.LoadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			if d := cmd.String("data-dir"); d != "" {
				cfg.RAG.DataDir = d
			}
			if cfg.RAG.DataDir == "" {
				return fmt.Errorf("no data directory configured, set rag.data_dir or --data-dir")
			}

			_, embedder, err := api.BuildLLM(ctx, cfg.LLM)
			if err != nil {
				return err
			}

			store, err := rag.NewStore(cfg.RAG.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := rag.NewRetriever(store, embedder).IndexDir(ctx, cfg.RAG.DataDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Writer, "indexed %d chunks from %s into %s\n",
				n, cfg.RAG.DataDir, cfg.RAG.DBPath)
			return nil
		},
	}
}
