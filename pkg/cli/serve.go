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

	"github.com/urfave/cli/v3"

	"github.com/kubechat/kubechat/pkg/api"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "serve",
		EnableShellCompletion: true,
		Usage:                 "Run the kubechat API server",
		Description: `Run the HTTP API server hosting the chat assistant.

The server exposes:
  POST /v1/login       - exchange a user id for an auth token
  POST /v1/chat        - send a message, receive an answer or a command proposal
  POST /v1/confirm     - confirm or reject a pending command
  POST /v1/regenerate  - ask for an alternative command for a prior request
  GET  /v1/clusters    - list configured cluster contexts
  GET  /health /ready /metrics

Configuration comes from the YAML file given with --config plus environment
overrides (PORT, JWT_SECRET_KEY, OLLAMA_HOST, GEMINI_API_KEY, and the
CHATBOT_* variables).`,
		Flags: []cli.Flag{
			configFlag,
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP listen port (overrides config file)",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "knowledge base directory to index for retrieval",
				Sources: cli.EnvVars("KUBECHAT_DATA_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := api.LoadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			if p := cmd.Int("port"); p != 0 {
				cfg.Server.Port = int(p)
			}
			if d := cmd.String("data-dir"); d != "" {
				cfg.RAG.DataDir = d
			}
			return api.Serve(ctx, cfg)
		},
	}
}
