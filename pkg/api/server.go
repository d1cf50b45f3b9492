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

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/kubechat/kubechat/pkg/assistant"
	"github.com/kubechat/kubechat/pkg/auth"
	"github.com/kubechat/kubechat/pkg/cluster"
	"github.com/kubechat/kubechat/pkg/command"
	"github.com/kubechat/kubechat/pkg/defaults"
	"github.com/kubechat/kubechat/pkg/llm"
	"github.com/kubechat/kubechat/pkg/rag"
	"github.com/kubechat/kubechat/pkg/server"
	"github.com/kubechat/kubechat/pkg/session"
)

const (
	name           = "kubechat-api-server"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/kubechat/kubechat/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve wires the application together and runs the HTTP server until ctx
// is cancelled or a fatal error occurs. Knowledge base indexing runs in the
// background so startup is not blocked on embedding the corpus.
func Serve(ctx context.Context, cfg *Config) error {
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	secret, err := cfg.authSecret()
	if err != nil {
		return err
	}
	tokens, err := auth.NewManager(secret)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Session.DBPath)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	registry, err := cluster.NewRegistry(cfg.Clusters)
	if err != nil {
		return fmt.Errorf("loading cluster registry: %w", err)
	}

	kubectlPath, err := resolveKubectl(cfg.Kubectl.Path)
	if err != nil {
		return err
	}
	slog.Info("resolved kubectl", "path", kubectlPath)

	gateway := command.NewGateway(kubectlPath, registry)
	pipeline := command.NewPipeline(store, gateway)

	client, embedder, err := BuildLLM(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	var (
		retriever *rag.Retriever
		ragStore  *rag.Store
	)
	if cfg.RAG.DataDir != "" {
		ragStore, err = rag.NewStore(cfg.RAG.DBPath)
		if err != nil {
			return fmt.Errorf("opening retrieval store: %w", err)
		}
		defer ragStore.Close()
		retriever = rag.NewRetriever(ragStore, embedder)
	} else {
		slog.Info("no data directory configured, retrieval disabled")
	}

	bot := assistant.New(client, retrieverOrNil(retriever), store, pipeline)

	srvCfg := server.NewConfig()
	srvCfg.Version = version
	srvCfg.Address = cfg.Server.Address
	if cfg.Server.Port != 0 {
		srvCfg.Port = cfg.Server.Port
	}
	srv := server.NewServer(srvCfg, bot, tokens, registry)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(ctx)
	})

	if retriever != nil {
		g.Go(func() error {
			// Stale chunks from a previous run stay queryable while the
			// corpus is re-embedded.
			if err := retriever.LoadVocabulary(ctx); err != nil {
				slog.Warn("failed to load retrieval vocabulary", "error", err)
			}
			n, err := retriever.IndexDir(ctx, cfg.RAG.DataDir)
			if err != nil {
				slog.Error("knowledge base indexing failed", "error", err, "dir", cfg.RAG.DataDir)
				return nil
			}
			slog.Info("knowledge base indexed", "chunks", n, "dir", cfg.RAG.DataDir)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// resolveKubectl turns the configured kubectl path into an absolute one,
// consulting PATH for bare names. The gateway validates and executes the
// same file only when the path is absolute, so resolution happens exactly
// once, here, before anything can run.
func resolveKubectl(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	found, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("resolving kubectl path %q: %w", path, err)
	}
	abs, err := filepath.Abs(found)
	if err != nil {
		return "", fmt.Errorf("resolving kubectl path %q: %w", path, err)
	}
	return abs, nil
}

// retrieverOrNil avoids handing the assistant a non-nil interface wrapping
// a nil pointer when retrieval is disabled.
func retrieverOrNil(r *rag.Retriever) assistant.Retriever {
	if r == nil {
		return nil
	}
	return r
}

// BuildLLM constructs the completion client and embedder for the
// configured provider.
func BuildLLM(ctx context.Context, cfg LLMConfig) (llm.Client, llm.Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama:
		client := llm.NewOllamaClientWithConfig(llm.OllamaConfig{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     defaults.LLMRequestTimeout,
		})
		embedder := llm.NewOllamaEmbedder(cfg.BaseURL, cfg.EmbeddingModel)
		return client, embedder, nil

	case ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gemini client: %w", err)
		}
		embedder, err := llm.NewGeminiEmbedder(ctx, cfg.APIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gemini embedder: %w", err)
		}
		return client, embedder, nil

	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
