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

// Package command runs kubectl on behalf of chat sessions.
//
// The Gateway is the only place a subprocess is spawned: it enforces the
// kubectl allow-list, resolves the target cluster's kubeconfig, and bounds
// every run with a wall-clock timeout. The Pipeline sits above it and holds
// the propose/confirm state machine, consuming a session's pending command
// before execution so a confirmation is honored at most once.
package command
