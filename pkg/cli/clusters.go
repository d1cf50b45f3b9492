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
	"github.com/kubechat/kubechat/pkg/cluster"
)

func clustersCmd() *cli.Command {
	return &cli.Command{
		Name:                  "clusters",
		EnableShellCompletion: true,
		Usage:                 "List the configured cluster contexts",
		Description: `List the cluster contexts the assistant can execute commands against.

Clusters come from the 'clusters:' map in the config file. When no "default"
entry is configured one is discovered from KUBECONFIG or ~/.kube/config.

With --ping each cluster's API server is queried and its version printed.`,
		Flags: []cli.Flag{
			configFlag,
			&cli.BoolFlag{
				Name:  "ping",
				Usage: "check API server reachability for each cluster",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := api.LoadConfig(cmd.String("config"))
			if err != nil {
				return err
			}

			registry, err := cluster.NewRegistry(cfg.Clusters)
			if err != nil {
				return err
			}

			names := registry.List()
			if len(names) == 0 {
				fmt.Fprintln(cmd.Writer, "no clusters configured")
				return nil
			}

			for _, n := range names {
				if !cmd.Bool("ping") {
					fmt.Fprintln(cmd.Writer, n)
					continue
				}
				ver, err := registry.Ping(ctx, n)
				if err != nil {
					fmt.Fprintf(cmd.Writer, "%s\tunreachable: %v\n", n, err)
					continue
				}
				fmt.Fprintf(cmd.Writer, "%s\t%s\n", n, ver)
			}
			return nil
		},
	}
}
