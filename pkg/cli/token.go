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
	"github.com/kubechat/kubechat/pkg/auth"
)

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:                  "token",
		EnableShellCompletion: true,
		Usage:                 "Mint an auth token for a user",
		Description: `Mint a signed auth token for the given user id, valid for 24 hours.

The signing secret must be configured (auth.secret in the config file or the
JWT_SECRET_KEY environment variable); a server running with an ephemeral
secret will not accept tokens minted here.`,
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "user id to embed in the token",
				Required: true,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := api.LoadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth.secret (or JWT_SECRET_KEY) must be configured to mint tokens")
			}

			tokens, err := auth.NewManager(cfg.Auth.Secret)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateToken(cmd.String("user"))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.Writer, token)
			return nil
		},
	}
}
