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

// Package server exposes the chat API over HTTP: login, chat, confirm,
// regenerate, and cluster listing, plus health and metrics endpoints.
// Every API handler runs behind the same middleware chain (metrics, version
// negotiation, request IDs, panic recovery, rate limiting, logging), and
// the chat endpoints additionally require a bearer token. The authenticated
// identity travels in the request context only; there is no mutable login
// state on the server.
package server
