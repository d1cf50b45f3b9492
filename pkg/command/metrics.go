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

package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubechat_commands_executed_total",
			Help: "Total number of commands that reached the subprocess, by outcome",
		},
		[]string{"status"},
	)

	commandsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubechat_commands_rejected_total",
			Help: "Total number of commands rejected before any process was spawned",
		},
		[]string{"reason"},
	)

	commandDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kubechat_command_duration_seconds",
			Help:    "Subprocess execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	confirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubechat_confirmations_total",
			Help: "Total number of confirmation replies, by resolution",
		},
		[]string{"outcome"},
	)

	proposals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kubechat_proposals_total",
			Help: "Total number of command proposals stored for confirmation",
		},
	)
)
