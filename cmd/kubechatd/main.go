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

// kubechatd runs the API server with configuration taken entirely from the
// environment, for container deployments that do not need the full CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubechat/kubechat/pkg/api"
	"github.com/kubechat/kubechat/pkg/logging"
)

func main() {
	logging.SetDefaultStructuredLogger("kubechatd", "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := api.LoadConfig(os.Getenv("KUBECHAT_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	if err := api.Serve(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}
